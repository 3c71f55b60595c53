package credential_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botfleet/internal/domain/credential"
)

const validCredsJSON = `{"creds":{"noiseKey":"a","signedIdentityKey":"b","signedPreKey":"c","registrationId":1,"me":{"id":"15550001111:1@s.whatsapp.net"}}}`

func TestValidate(t *testing.T) {
	t.Run("accepts a well-formed blob and extracts the phone", func(t *testing.T) {
		parsed, err := credential.Validate([]byte(validCredsJSON), "")
		require.NoError(t, err)
		assert.Equal(t, "15550001111", parsed.Phone)
	})

	t.Run("accepts the same blob base64-encoded", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte(validCredsJSON))
		parsed, err := credential.Validate([]byte(encoded), "")
		require.NoError(t, err)
		assert.Equal(t, "15550001111", parsed.Phone)
		assert.JSONEq(t, validCredsJSON, string(parsed.Raw))
	})

	t.Run("matches expected phone digit-for-digit", func(t *testing.T) {
		_, err := credential.Validate([]byte(validCredsJSON), "+1 (555) 000-1111")
		assert.NoError(t, err)
	})

	t.Run("rejects a phone mismatch", func(t *testing.T) {
		_, err := credential.Validate([]byte(validCredsJSON), "+15559998888")
		assert.ErrorIs(t, err, credential.ErrPhoneMismatch)
	})

	t.Run("rejects a blob below the minimum size", func(t *testing.T) {
		_, err := credential.Validate([]byte("{}"), "")
		assert.ErrorIs(t, err, credential.ErrCredentialTooSmall)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := credential.Validate([]byte(`not-json-at-all-but-long-enough`), "")
		assert.ErrorIs(t, err, credential.ErrCredentialMalformed)
	})

	t.Run("rejects a blob missing the creds object", func(t *testing.T) {
		_, err := credential.Validate([]byte(`{"somethingElse":"value-padding-to-pass-min-size"}`), "")
		assert.ErrorIs(t, err, credential.ErrMissingCredsObject)
	})

	t.Run("rejects a creds object missing a required field", func(t *testing.T) {
		blob := `{"creds":{"noiseKey":"a","signedIdentityKey":"b"}}`
		_, err := credential.Validate([]byte(blob), "")
		assert.ErrorIs(t, err, credential.ErrMissingRequiredField)
	})
}

func TestExtractPhoneDeepScan(t *testing.T) {
	obj := map[string]interface{}{
		"nested": map[string]interface{}{
			"phoneNumber": "15550001111",
		},
	}
	assert.Equal(t, "15550001111", credential.ExtractPhone(obj))
}
