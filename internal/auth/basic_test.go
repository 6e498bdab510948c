// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package auth

import (
	"os"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	bcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func TestNewBasicAuthManager(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("prehashed-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		username    string
		password    string
		expectError bool
		errorMsg    string
	}{
		{
			name:     "valid credentials",
			username: "operator",
			password: "securepassword123",
		},
		{
			name:     "minimum password length",
			username: "operator",
			password: "12345678",
		},
		{
			name:     "bcrypt hash is accepted as is",
			username: "operator",
			password: string(hash),
		},
		{
			name:        "empty username",
			password:    "securepassword123",
			expectError: true,
			errorMsg:    "username is required",
		},
		{
			name:        "empty password",
			username:    "operator",
			expectError: true,
			errorMsg:    "password is required",
		},
		{
			name:        "password too short",
			username:    "operator",
			password:    "1234567",
			expectError: true,
			errorMsg:    "at least 8 characters",
		},
		{
			name:        "malformed hash",
			username:    "operator",
			password:    "$2a$99$" + strings.Repeat("x", 53),
			expectError: true,
			errorMsg:    "invalid bcrypt hash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewBasicAuthManager(tt.username, tt.password)
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("error = %q, want it to contain %q", err, tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if manager.Username() != tt.username {
				t.Errorf("Username() = %q, want %q", manager.Username(), tt.username)
			}
		})
	}
}

func TestBasicAuthVerify(t *testing.T) {
	m, err := NewBasicAuthManager("operator", "securepassword123")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		username, password string
		want               bool
	}{
		{"operator", "securepassword123", true},
		{"operator", "wrong", false},
		{"Operator", "securepassword123", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := m.Verify(tt.username, tt.password); got != tt.want {
			t.Errorf("Verify(%q, %q) = %v, want %v", tt.username, tt.password, got, tt.want)
		}
	}
}

func TestBasicAuthPrehashedVerify(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("prehashed-secret"), bcrypt.MinCost)
	m, err := NewBasicAuthManager("operator", string(hash))
	if err != nil {
		t.Fatal(err)
	}
	if !m.Verify("operator", "prehashed-secret") {
		t.Error("Verify with plaintext of the configured hash failed")
	}
	if m.Verify("operator", string(hash)) {
		t.Error("the hash itself must not be accepted as the password")
	}
}

func TestWWWAuthenticate(t *testing.T) {
	m, _ := NewBasicAuthManager("operator", "securepassword123")
	if got := m.WWWAuthenticate(); got != `Basic realm="Circulation", charset="UTF-8"` {
		t.Errorf("WWWAuthenticate() = %q", got)
	}
}
