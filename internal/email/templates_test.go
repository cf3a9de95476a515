package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_PasswordReset(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	msg, err := r.Render(TemplatePasswordReset, "a@example.com", "Reset", map[string]interface{}{
		"Name":         "Ann <script>",
		"ResetURL":     "http://localhost:5173/reset-password/abc",
		"ValidMinutes": 10,
	})
	require.NoError(t, err)

	assert.Equal(t, "a@example.com", msg.To)
	assert.Contains(t, msg.HTML, "http://localhost:5173/reset-password/abc")
	assert.Contains(t, msg.HTML, "Ann &lt;script&gt;")
	assert.Contains(t, msg.Text, "Ann <script>")
	assert.Contains(t, msg.Text, "10 minutes")
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Render("missing", "a@example.com", "x", nil)
	assert.Error(t, err)
}

func TestLogMailer_Send(t *testing.T) {
	assert.NoError(t, NewLogMailer(nil).Send(context.Background(), Message{To: "a@example.com"}))
}
