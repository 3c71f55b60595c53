package rpc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"botfleet/internal/domain/rpc"
)

func TestOperationIsValid(t *testing.T) {
	valid := []rpc.Operation{rpc.OpHealth, rpc.OpCreate, rpc.OpUpdate, rpc.OpCredentials, rpc.OpLifecycle, rpc.OpStatus}
	for _, op := range valid {
		assert.True(t, op.IsValid(), "expected %q to be valid", op)
	}
	assert.False(t, rpc.Operation("delete").IsValid())
	assert.False(t, rpc.Operation("").IsValid())
}

func TestLifecycleActionIsValid(t *testing.T) {
	valid := []rpc.LifecycleAction{rpc.ActionStart, rpc.ActionStop, rpc.ActionRestart}
	for _, action := range valid {
		assert.True(t, action.IsValid(), "expected %q to be valid", action)
	}
	assert.False(t, rpc.LifecycleAction("pause").IsValid())
}
