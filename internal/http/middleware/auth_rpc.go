package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"botfleet/internal/domain/bot"
	domainregistry "botfleet/internal/domain/registry"
	domainrpc "botfleet/internal/domain/rpc"
	infrarpc "botfleet/internal/infra/rpc"
	"botfleet/pkg/logger"
)

type rpcEnvelopeKey struct{}

// RPCEnvelope is the decoded, signature-verified body of an inbound
// cross-tenancy RPC request, attached to the context for the handler.
type RPCEnvelope struct {
	Operation     domainrpc.Operation
	SourceServer  string
	Data          json.RawMessage
}

type rpcRequestBody struct {
	Operation string `json:"operation"`
	Token     string `json:"token"`
}

// RPCAuth verifies the signed envelope on every inbound cross-tenancy RPC
// call: the token must be signed by the source tenancy's catalog secret, not
// expired, and X-Target-Server must name this tenancy.
func RPCAuth(servers domainregistry.ServerRepository, signer *infrarpc.Signer, thisTenancy bot.TenancyName, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target := r.Header.Get("X-Target-Server")
			if target != thisTenancy.String() {
				writeRPCError(w, http.StatusForbidden, domainrpc.ErrTargetMismatch)
				return
			}

			source := r.Header.Get("X-Source-Server")
			srv, err := servers.GetByName(r.Context(), source)
			if err != nil {
				writeRPCError(w, http.StatusUnauthorized, domainrpc.ErrUnknownSourceServer)
				return
			}

			var body rpcRequestBody
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeRPCError(w, http.StatusBadRequest, err)
				return
			}

			op := domainrpc.Operation(body.Operation)
			if !op.IsValid() {
				writeRPCError(w, http.StatusBadRequest, domainrpc.ErrUnsupportedOperation)
				return
			}

			var raw json.RawMessage
			if _, err := signer.Verify(body.Token, srv.SharedSecret, &raw); err != nil {
				log.WarnWithFields("rpc auth rejected", logger.Fields{"source": source, "op": string(op), "error": err.Error()})
				writeRPCError(w, http.StatusUnauthorized, err)
				return
			}

			ctx := context.WithValue(r.Context(), rpcEnvelopeKey{}, &RPCEnvelope{
				Operation:    op,
				SourceServer: source,
				Data:         raw,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RPCEnvelopeFromContext retrieves the verified envelope attached by RPCAuth.
func RPCEnvelopeFromContext(ctx context.Context) (*RPCEnvelope, bool) {
	env, ok := ctx.Value(rpcEnvelopeKey{}).(*RPCEnvelope)
	return env, ok
}

func writeRPCError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domainrpc.Envelope{Success: false, Error: err.Error()})
}
