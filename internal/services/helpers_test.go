package services

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/crypto"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/mail"
)

// capturingMailer records outbound messages instead of delivering them.
type capturingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *capturingMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *capturingMailer) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.messages, "expected at least one message")
	return m.messages[len(m.messages)-1]
}

func (m *capturingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func codeFromBody(t *testing.T, body string) string {
	t.Helper()
	code := codePattern.FindString(body)
	require.Len(t, code, 6, "expected a six digit code in %q", body)
	return code
}

func seedUser(t *testing.T, db *gorm.DB, name, email, role, password string) *models.User {
	t.Helper()

	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)

	user := models.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedWorklet(t *testing.T, db *gorm.DB, certID, title, status string) *models.Worklet {
	t.Helper()

	worklet := models.Worklet{
		CertID: certID,
		Title:  title,
		Status: status,
	}
	require.NoError(t, db.Create(&worklet).Error)
	return &worklet
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }
