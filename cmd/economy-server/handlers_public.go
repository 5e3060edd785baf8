package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"voxelworld-economy/internal/app/rewards"
	"voxelworld-economy/internal/app/wallet"
	"voxelworld-economy/internal/claims"
	"voxelworld-economy/internal/store"
)

func healthHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "db": "down"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "db": "up"})
	}
}

func authSessionHandler(walletSvc *wallet.Service, rewardsSvc *rewards.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr := r.Header.Get("X-Wallet-Address")
		acct, err := walletSvc.Authenticate(r.Context(), addr)
		if err != nil {
			code, msg := wallet.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		rewardsSvc.StartSession(acct.WalletAddress)
		writeJSON(w, acct)
	}
}

func heartbeatHandler(svc *rewards.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Heartbeat(r.Context(), walletFromContext(r.Context())); err != nil {
			code, msg := rewards.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

func sessionEndHandler(svc *rewards.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.EndSession(walletFromContext(r.Context()))
		writeJSON(w, map[string]any{"ok": true})
	}
}

func referralStatusHandler(svc *rewards.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Referral(r.Context(), walletFromContext(r.Context()))
		if err != nil {
			code, msg := rewards.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, res)
	}
}

func walletHandler(svc *wallet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, err := svc.Account(r.Context(), walletFromContext(r.Context()))
		if err != nil {
			code, msg := wallet.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, acct)
	}
}

func walletLedgerHandler(svc *wallet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := parsePagination(r)
		f := store.LedgerFilter{Wallet: walletFromContext(r.Context())}
		res, err := svc.Ledger(r.Context(), f, limit, offset)
		if err != nil {
			code, msg := wallet.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, res)
	}
}

func spendHandler(svc *wallet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			AmountVC int64  `json:"amount_vc"`
			ItemRef  string `json:"item_ref"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		res, err := svc.Spend(r.Context(), walletFromContext(r.Context()), body.AmountVC, body.ItemRef)
		if err != nil {
			code, msg := wallet.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, res)
	}
}

func escrowHandler(svc *wallet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			AmountVC int64  `json:"amount_vc"`
			MatchID  string `json:"match_id"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		res, err := svc.Escrow(r.Context(), walletFromContext(r.Context()), body.AmountVC, body.MatchID)
		if err != nil {
			code, msg := wallet.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, res)
	}
}

func escrowResolveHandler(svc *wallet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Winner   string `json:"winner"`
			AmountVC int64  `json:"amount_vc"`
			MatchID  string `json:"match_id"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		res, err := svc.ResolveEscrow(r.Context(), body.Winner, body.AmountVC, body.MatchID)
		if err != nil {
			code, msg := wallet.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, res)
	}
}

func escrowRefundHandler(svc *wallet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			AmountVC int64  `json:"amount_vc"`
			MatchID  string `json:"match_id"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		res, err := svc.RefundEscrow(r.Context(), walletFromContext(r.Context()), body.AmountVC, body.MatchID)
		if err != nil {
			code, msg := wallet.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, res)
	}
}

func dailyClaimHandler(svc *rewards.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Nonce string `json:"nonce"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		res, err := svc.ClaimDaily(r.Context(), walletFromContext(r.Context()), body.Nonce)
		if err != nil {
			writeRewardsError(w, err)
			return
		}
		writeJSON(w, res)
	}
}

func rewardsStatusHandler(svc *rewards.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Status(r.Context(), walletFromContext(r.Context()))
		if err != nil {
			code, msg := rewards.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, res)
	}
}

func referralRegisterHandler(svc *rewards.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Referrer string `json:"referrer"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		if err := svc.RegisterReferral(r.Context(), walletFromContext(r.Context()), body.Referrer); err != nil {
			code, msg := rewards.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

func referralPayoutHandler(svc *rewards.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.RequestPayout(r.Context(), walletFromContext(r.Context()))
		if err != nil {
			code, msg := rewards.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, res)
	}
}

func promoClaimHandler(svc *rewards.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.ClaimPromo(r.Context(), walletFromContext(r.Context()))
		if err != nil {
			code, msg := rewards.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, res)
	}
}

// writeRewardsError extends the generic mapping with the structured
// minutes-remaining payload for insufficient playtime.
func writeRewardsError(w http.ResponseWriter, err error) {
	status, code := rewards.MapError(err)
	var ite *claims.InsufficientTimeError
	if errors.As(err, &ite) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":             code,
			"minutes_remaining": ite.MinutesRemaining,
		})
		return
	}
	writeHTTPError(w, status, code)
}
