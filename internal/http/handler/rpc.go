package handler

import (
	"encoding/json"
	"net/http"

	domainrpc "botfleet/internal/domain/rpc"
	"botfleet/internal/http/middleware"
	"botfleet/internal/infra/container"
)

// RPCHandler serves the single inbound cross-tenancy RPC endpoint. The
// envelope's signature and operation have already been verified by
// middleware.RPCAuth; this handler only unmarshals the typed payload and
// dispatches.
type RPCHandler struct {
	container *container.Container
}

func NewRPCHandler(c *container.Container) *RPCHandler {
	return &RPCHandler{container: c}
}

// Handle handles POST /rpc
func (h *RPCHandler) Handle(w http.ResponseWriter, r *http.Request) {
	env, ok := middleware.RPCEnvelopeFromContext(r.Context())
	if !ok {
		writeRPCResult(w, &domainrpc.Envelope{Success: false, Error: "missing verified rpc envelope"})
		return
	}

	var (
		result *domainrpc.Envelope
		err    error
	)

	switch env.Operation {
	case domainrpc.OpHealth:
		result, err = h.container.RPCDispatcher.Health(r.Context(), env.SourceServer)
	case domainrpc.OpCreate:
		var payload domainrpc.CreatePayload
		if jerr := json.Unmarshal(env.Data, &payload); jerr != nil {
			writeRPCResult(w, &domainrpc.Envelope{Success: false, Error: jerr.Error()})
			return
		}
		result, err = h.container.RPCDispatcher.Create(r.Context(), env.SourceServer, payload)
	case domainrpc.OpUpdate:
		var payload domainrpc.UpdatePayload
		if jerr := json.Unmarshal(env.Data, &payload); jerr != nil {
			writeRPCResult(w, &domainrpc.Envelope{Success: false, Error: jerr.Error()})
			return
		}
		result, err = h.container.RPCDispatcher.Update(r.Context(), env.SourceServer, payload)
	case domainrpc.OpCredentials:
		var payload domainrpc.CredentialsPayload
		if jerr := json.Unmarshal(env.Data, &payload); jerr != nil {
			writeRPCResult(w, &domainrpc.Envelope{Success: false, Error: jerr.Error()})
			return
		}
		result, err = h.container.RPCDispatcher.Credentials(r.Context(), env.SourceServer, payload)
	case domainrpc.OpLifecycle:
		var payload domainrpc.LifecyclePayload
		if jerr := json.Unmarshal(env.Data, &payload); jerr != nil {
			writeRPCResult(w, &domainrpc.Envelope{Success: false, Error: jerr.Error()})
			return
		}
		result, err = h.container.RPCDispatcher.Lifecycle(r.Context(), env.SourceServer, payload)
	case domainrpc.OpStatus:
		var payload domainrpc.StatusPayload
		if jerr := json.Unmarshal(env.Data, &payload); jerr != nil {
			writeRPCResult(w, &domainrpc.Envelope{Success: false, Error: jerr.Error()})
			return
		}
		result, err = h.container.RPCDispatcher.Status(r.Context(), env.SourceServer, payload)
	default:
		writeRPCResult(w, &domainrpc.Envelope{Success: false, Error: domainrpc.ErrUnsupportedOperation.Error()})
		return
	}

	if err != nil {
		writeRPCResult(w, &domainrpc.Envelope{Success: false, Error: err.Error()})
		return
	}
	writeRPCResult(w, result)
}

func writeRPCResult(w http.ResponseWriter, env *domainrpc.Envelope) {
	status := http.StatusOK
	if !env.Success {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
