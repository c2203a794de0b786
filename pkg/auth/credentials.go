package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/Haymar136/faceflow-student-hub/pkg/models"
	"github.com/Haymar136/faceflow-student-hub/pkg/models/passwd"
	"gopkg.in/yaml.v3"
)

// CredentialsFile is the YAML layout of a credential table file.
type CredentialsFile struct {
	Credentials []models.CredentialRecord `yaml:"credentials"`
}

type credential struct {
	identifier string
	hash       string
	session    models.Session
}

// Credentials is an immutable table of accepted logins.
type Credentials struct {
	entries []credential
}

// DefaultCredentialRecords returns the two demonstration accounts.
func DefaultCredentialRecords() []models.CredentialRecord {
	return []models.CredentialRecord{
		{
			Identifier: "admin@example.com",
			Secret:     "admin123",
			ID:         "1",
			Name:       "Admin User",
			Role:       models.RoleAdmin,
		},
		{
			Identifier: "student@example.com",
			Secret:     "student123",
			ID:         "2",
			Name:       "Student User",
			Role:       models.RoleStudent,
		},
	}
}

// LoadCredentialRecords reads a credential table from a YAML file.
func LoadCredentialRecords(path string) ([]models.CredentialRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var f CredentialsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if len(f.Credentials) == 0 {
		return nil, models.NewValidationError("credentials file lists no credentials")
	}
	return f.Credentials, nil
}

// NewCredentials validates records and hashes plaintext secrets with the given bcrypt cost.
func NewCredentials(records []models.CredentialRecord, cost int) (*Credentials, error) {
	seen := make(map[string]bool, len(records))
	entries := make([]credential, 0, len(records))

	for i, rec := range records {
		rec.Identifier = strings.TrimSpace(rec.Identifier)
		key := strings.ToLower(rec.Identifier)
		switch {
		case rec.Identifier == "":
			return nil, models.NewValidationError(fmt.Sprintf("credential %d: identifier is required", i))
		case seen[key]:
			return nil, models.NewValidationError(fmt.Sprintf("credential %d: duplicate identifier %q", i, rec.Identifier))
		case rec.Name == "":
			return nil, models.NewValidationError(fmt.Sprintf("credential %d: name is required", i))
		}
		if err := rec.Session().Validate(); err != nil {
			return nil, fmt.Errorf("credential %d: %w", i, err)
		}
		seen[key] = true

		hash := rec.SecretHash
		switch {
		case hash != "":
			if !passwd.IsHash(hash) {
				return nil, models.NewValidationError(fmt.Sprintf("credential %d: secret_hash is not a bcrypt hash", i))
			}
		case rec.Secret != "":
			var err error
			if hash, err = passwd.HashSecretWithCost(rec.Secret, cost); err != nil {
				return nil, fmt.Errorf("credential %d: %w", i, err)
			}
		default:
			return nil, models.NewValidationError(fmt.Sprintf("credential %d: secret or secret_hash is required", i))
		}

		entries = append(entries, credential{
			identifier: rec.Identifier,
			hash:       hash,
			session:    rec.Session(),
		})
	}

	return &Credentials{entries: entries}, nil
}

// Match returns the session granted by identifier and secret.
// Identifiers are trimmed and compare case-insensitively, secrets exactly.
func (c *Credentials) Match(identifier, secret string) (models.Session, bool) {
	identifier = strings.TrimSpace(identifier)
	for _, e := range c.entries {
		if !strings.EqualFold(e.identifier, identifier) {
			continue
		}
		if passwd.Authenticate(secret, e.hash) {
			return e.session, true
		}
		return models.Session{}, false
	}
	return models.Session{}, false
}

// Len returns the number of accounts in the table.
func (c *Credentials) Len() int {
	return len(c.entries)
}
