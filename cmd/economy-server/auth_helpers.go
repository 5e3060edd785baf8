package main

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"

	"voxelworld-economy/internal/config"
	"voxelworld-economy/internal/store"
)

type walletContextKey struct{}

// walletAuthMiddleware trusts the session/transport layer's authenticated
// wallet identity, carried in the X-Wallet-Address header, and requires the
// account to exist.
func walletAuthMiddleware(st *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := r.Header.Get("X-Wallet-Address")
			if addr == "" {
				writeHTTPError(w, http.StatusUnauthorized, "missing_wallet")
				return
			}
			acct, err := st.GetAccount(r.Context(), addr)
			if err != nil {
				writeHTTPError(w, http.StatusUnauthorized, "unknown_wallet")
				return
			}
			ctx := context.WithValue(r.Context(), walletContextKey{}, acct.WalletAddress)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func walletFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(walletContextKey{}).(string); ok {
		return v
	}
	return ""
}

func adminAuthMiddleware(cfg config.ServerConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Admin-Key")
			if cfg.AdminAPIKey == "" ||
				subtle.ConstantTimeCompare([]byte(key), []byte(cfg.AdminAPIKey)) != 1 {
				writeHTTPError(w, http.StatusUnauthorized, "invalid_admin_key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parsePagination(r *http.Request) (int, int) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
