package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVaultToken(t *testing.T) {
	tempDir := t.TempDir()

	tokenFile := filepath.Join(tempDir, "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token\n"), 0600))

	tests := []struct {
		name        string
		config      VaultConfig
		expected    string
		expectError bool
	}{
		{
			name:     "direct token",
			config:   VaultConfig{Token: "direct-token"},
			expected: "direct-token",
		},
		{
			name:     "token from file is trimmed",
			config:   VaultConfig{TokenFile: tokenFile},
			expected: "file-token",
		},
		{
			name:     "direct token wins over file",
			config:   VaultConfig{Token: "direct-token", TokenFile: tokenFile},
			expected: "direct-token",
		},
		{
			name:        "missing token",
			config:      VaultConfig{},
			expectError: true,
		},
		{
			name:        "unreadable token file",
			config:      VaultConfig{TokenFile: filepath.Join(tempDir, "missing")},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := resolveVaultToken(tt.config)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, token)
		})
	}
}

func TestNewVaultClientDisabled(t *testing.T) {
	client, err := NewVaultClient(VaultConfig{Enabled: false}, nil)
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{
		Vault: VaultConfig{Enabled: false},
		AI:    AIConfig{APIKey: "configured-key"},
	}

	err := ApplyVaultSecrets(config, nil)
	assert.NoError(t, err)
	assert.Equal(t, "configured-key", config.AI.APIKey)
}

func TestGetSecretV2NilClient(t *testing.T) {
	var client *VaultClient
	_, err := client.GetSecretV2("secret/data/ai")
	assert.Error(t, err)
}
