package credential_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botfleet/internal/domain/bot"
	domaincred "botfleet/internal/domain/credential"
	"botfleet/internal/infra/credential"
	"botfleet/pkg/logger"
)

const validCredsJSON = `{"creds":{"noiseKey":"a","signedIdentityKey":"b","signedPreKey":"c","registrationId":1,"me":{"id":"15550001111:1@s.whatsapp.net"}}}`

func testVault(t *testing.T) *credential.Vault {
	t.Helper()
	log := logger.New(&logger.Config{Level: "error", Output: "console"})
	return credential.NewVault(t.TempDir(), log)
}

func TestVaultStoreAndLoad(t *testing.T) {
	v := testVault(t)
	id := bot.NewBotID()

	parsed, err := v.Store(id, []byte(validCredsJSON), "")
	require.NoError(t, err)
	assert.Equal(t, "15550001111", parsed.Phone)

	loaded, err := v.Load(id)
	require.NoError(t, err)
	assert.JSONEq(t, validCredsJSON, string(loaded))
}

func TestVaultStoreWritesOnDiskMirror(t *testing.T) {
	baseDir := t.TempDir()
	log := logger.New(&logger.Config{Level: "error", Output: "console"})
	v := credential.NewVault(baseDir, log)
	id := bot.NewBotID()

	_, err := v.Store(id, []byte(validCredsJSON), "")
	require.NoError(t, err)

	path := filepath.Join(baseDir, "bot_"+id.String(), "creds.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, validCredsJSON, string(data))
}

func TestVaultStoreRejectsPhoneMismatch(t *testing.T) {
	v := testVault(t)
	_, err := v.Store(bot.NewBotID(), []byte(validCredsJSON), "+15559998888")
	assert.ErrorIs(t, err, domaincred.ErrPhoneMismatch)
}

func TestVaultStoreRejectsTooSmallBlob(t *testing.T) {
	v := testVault(t)
	_, err := v.Store(bot.NewBotID(), []byte("{}"), "")
	assert.ErrorIs(t, err, domaincred.ErrCredentialTooSmall)
}

func TestVaultLoadMissingReturnsNil(t *testing.T) {
	v := testVault(t)
	data, err := v.Load(bot.NewBotID())
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestVaultPurgeRemovesMirror(t *testing.T) {
	v := testVault(t)
	id := bot.NewBotID()

	_, err := v.Store(id, []byte(validCredsJSON), "")
	require.NoError(t, err)

	require.NoError(t, v.Purge(id))

	data, err := v.Load(id)
	require.NoError(t, err)
	assert.Nil(t, data)
}
