package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/hookstore/internal/crypto"
	"github.com/eldtechnologies/hookstore/internal/ingest"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("WEBHOOK_SECRET", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSign_Stdin(t *testing.T) {
	body := `{"message_id":"m1"}`
	out, err := run(t, body, "--secret", "test-secret-123")
	require.NoError(t, err)
	assert.Equal(t, "X-Signature: "+crypto.SignHMAC([]byte(body), []byte("test-secret-123"))+"\n", out)
}

func TestSign_RequiresSecret(t *testing.T) {
	_, err := run(t, "{}")
	assert.Error(t, err)
}

func TestMessage_ProducesValidSignedBody(t *testing.T) {
	out, err := run(t, "", "message", "--secret", "s", "--from", "+111", "--to", "+222", "--text", "hi")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var p ingest.Payload
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &p))
	assert.Nil(t, p.Validate())
	assert.Len(t, *p.MessageID, 26, "ULID")

	sig := strings.TrimPrefix(lines[1], "X-Signature: ")
	assert.True(t, crypto.VerifyHMAC([]byte(lines[0]), sig, []byte("s")).Valid)
}
