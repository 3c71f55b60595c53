package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"botfleet/internal/http/dto"
	"botfleet/pkg/validator"
)

func testValidator() *dto.DTOValidator {
	return dto.NewDTOValidator(validator.New())
}

func TestValidateRegisterBotRequest(t *testing.T) {
	dv := testValidator()

	t.Run("accepts a well-formed request and trims whitespace", func(t *testing.T) {
		req := &dto.RegisterBotRequest{Name: "  support-01  ", Phone: " +5511999999999 "}
		err := dv.ValidateRegisterBotRequest(req)
		assert.NoError(t, err)
		assert.Equal(t, "support-01", req.Name)
		assert.Equal(t, "+5511999999999", req.Phone)
	})

	t.Run("rejects a missing phone", func(t *testing.T) {
		req := &dto.RegisterBotRequest{Name: "support-01"}
		assert.Error(t, dv.ValidateRegisterBotRequest(req))
	})
}

func TestValidateApproveBotRequest(t *testing.T) {
	dv := testValidator()

	assert.NoError(t, dv.ValidateApproveBotRequest(&dto.ApproveBotRequest{ExpirationMonths: 12}))
	assert.Error(t, dv.ValidateApproveBotRequest(&dto.ApproveBotRequest{ExpirationMonths: 0}))
	assert.Error(t, dv.ValidateApproveBotRequest(&dto.ApproveBotRequest{ExpirationMonths: 120}))
}

func TestValidateSetProxyRequest(t *testing.T) {
	dv := testValidator()

	t.Run("accepts a valid http proxy URL", func(t *testing.T) {
		req := &dto.SetProxyRequest{ProxyURL: "http://proxy.example.com:8080"}
		assert.NoError(t, dv.ValidateSetProxyRequest(req))
	})

	t.Run("rejects an unsupported scheme", func(t *testing.T) {
		req := &dto.SetProxyRequest{ProxyURL: "ftp://proxy.example.com"}
		assert.Error(t, dv.ValidateSetProxyRequest(req))
	})
}

func TestValidateBatchOperateRequest(t *testing.T) {
	dv := testValidator()

	t.Run("accepts a valid batch request", func(t *testing.T) {
		req := &dto.BatchOperateRequest{
			Operation: "start",
			Items:     []dto.BatchItemDTO{{Tenancy: "tenancy-a", BotID: "550e8400-e29b-41d4-a716-446655440000"}},
		}
		assert.NoError(t, dv.ValidateBatchOperateRequest(req))
	})

	t.Run("rejects an unknown operation", func(t *testing.T) {
		req := &dto.BatchOperateRequest{
			Operation: "teleport",
			Items:     []dto.BatchItemDTO{{Tenancy: "tenancy-a", BotID: "550e8400-e29b-41d4-a716-446655440000"}},
		}
		assert.Error(t, dv.ValidateBatchOperateRequest(req))
	})

	t.Run("rejects an empty item list", func(t *testing.T) {
		req := &dto.BatchOperateRequest{Operation: "start", Items: nil}
		assert.Error(t, dv.ValidateBatchOperateRequest(req))
	})
}

func TestValidateRequestOTPRequest(t *testing.T) {
	dv := testValidator()
	req := &dto.RequestOTPRequest{Phone: " +5511999999999 "}
	assert.NoError(t, dv.ValidateRequestOTPRequest(req))
	assert.Equal(t, "+5511999999999", req.Phone)
}

func TestValidateVerifyOTPRequest(t *testing.T) {
	dv := testValidator()
	assert.NoError(t, dv.ValidateVerifyOTPRequest(&dto.VerifyOTPRequest{Phone: "+5511999999999", OTP: "123456"}))
	assert.Error(t, dv.ValidateVerifyOTPRequest(&dto.VerifyOTPRequest{Phone: "+5511999999999", OTP: ""}))
}

func TestValidateRegisterServerRequest(t *testing.T) {
	dv := testValidator()

	t.Run("accepts a well-formed request", func(t *testing.T) {
		req := &dto.RegisterServerRequest{
			Name: "tenancy-a", BaseURL: "https://tenancy-a.example.com",
			SharedSecret: "a-very-long-shared-secret-value", Capacity: 10,
		}
		assert.NoError(t, dv.ValidateRegisterServerRequest(req))
	})

	t.Run("rejects a too-short shared secret", func(t *testing.T) {
		req := &dto.RegisterServerRequest{
			Name: "tenancy-a", BaseURL: "https://tenancy-a.example.com",
			SharedSecret: "short", Capacity: 10,
		}
		assert.Error(t, dv.ValidateRegisterServerRequest(req))
	})
}

func TestValidateCommandRequest(t *testing.T) {
	dv := testValidator()
	req := &dto.CommandRequest{Trigger: "  !help  ", Enabled: true}
	assert.NoError(t, dv.ValidateCommandRequest(req))
	assert.Equal(t, "!help", req.Trigger)
}

func TestValidatePaginationRequest(t *testing.T) {
	dv := testValidator()

	req := &dto.PaginationRequest{Limit: 0, Offset: -5}
	assert.NoError(t, dv.ValidatePaginationRequest(req))
	assert.Equal(t, 20, req.Limit)
	assert.Equal(t, 0, req.Offset)
}

func TestProxyURLValidator(t *testing.T) {
	v := dto.NewProxyURLValidator()

	assert.NoError(t, v.Validate(""))
	assert.NoError(t, v.Validate("socks5://proxy.example.com:1080"))
	assert.Error(t, v.Validate("ftp://proxy.example.com"))
	assert.Error(t, v.Validate("http://"))
}

func TestSessionNameValidator(t *testing.T) {
	v := dto.NewSessionNameValidator()

	assert.NoError(t, v.Validate("support-01"))
	assert.Error(t, v.Validate(""))
	assert.Error(t, v.Validate("ab"))
	assert.Error(t, v.Validate("invalid!name"))
}
