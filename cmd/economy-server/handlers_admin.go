package main

import (
	"net/http"
	"time"

	"voxelworld-economy/internal/app/wallet"
	"voxelworld-economy/internal/settlement"
	"voxelworld-economy/internal/store"

	"github.com/go-chi/chi/v5"
)

func adminCreditHandler(svc *wallet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Wallet   string `json:"wallet"`
			AmountVC int64  `json:"amount_vc"`
			Reason   string `json:"reason"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		res, err := svc.Credit(r.Context(), body.Wallet, body.AmountVC, body.Reason)
		if err != nil {
			code, msg := wallet.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, res)
	}
}

func adminDebitHandler(svc *wallet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Wallet   string `json:"wallet"`
			AmountVC int64  `json:"amount_vc"`
			Reason   string `json:"reason"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		res, err := svc.Debit(r.Context(), body.Wallet, body.AmountVC, body.Reason)
		if err != nil {
			code, msg := wallet.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, res)
	}
}

func adminTransferHandler(svc *wallet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			From     string `json:"from"`
			To       string `json:"to"`
			AmountVC int64  `json:"amount_vc"`
			Reason   string `json:"reason"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		if err := svc.Transfer(r.Context(), body.From, body.To, body.AmountVC, body.Reason); err != nil {
			code, msg := wallet.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

func adminAccountsHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := parsePagination(r)
		items, err := st.ListAccounts(r.Context(), limit, offset)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		out := make([]map[string]any, 0, len(items))
		for _, a := range items {
			out = append(out, map[string]any{
				"wallet_address":     a.WalletAddress,
				"balance_vc":         a.BalanceVC,
				"lifetime_earned_vc": a.LifetimeEarnedVC,
				"lifetime_spent_vc":  a.LifetimeSpentVC,
				"claim_count":        a.ClaimCount,
				"pending_wei":        a.PendingWei.String(),
				"paid_out_wei":       a.PaidOutWei.String(),
				"referrer_address":   a.ReferrerAddress,
				"created_at":         a.CreatedAt,
			})
		}
		writeJSON(w, map[string]any{"items": out, "limit": limit, "offset": offset})
	}
}

func adminLedgerHandler(svc *wallet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := parsePagination(r)
		f := store.LedgerFilter{
			Wallet:  r.URL.Query().Get("wallet"),
			RefType: r.URL.Query().Get("ref_type"),
			RefID:   r.URL.Query().Get("ref_id"),
		}
		if v := r.URL.Query().Get("from"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				f.From = &t
			}
		}
		if v := r.URL.Query().Get("to"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				f.To = &t
			}
		}
		res, err := svc.Ledger(r.Context(), f, limit, offset)
		if err != nil {
			code, msg := wallet.MapError(err)
			writeHTTPError(w, code, msg)
			return
		}
		writeJSON(w, res)
	}
}

func adminIntentsHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := parsePagination(r)
		items, err := st.ListPayoutIntents(r.Context(),
			r.URL.Query().Get("wallet"), r.URL.Query().Get("state"), limit, offset)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		out := make([]map[string]any, 0, len(items))
		for _, p := range items {
			out = append(out, map[string]any{
				"id":             p.ID,
				"wallet_address": p.WalletAddress,
				"kind":           p.Kind,
				"state":          p.State,
				"amount_wei":     p.AmountWei.String(),
				"external_tx_id": p.ExternalTxID,
				"fail_reason":    p.FailReason,
				"created_at":     p.CreatedAt,
				"updated_at":     p.UpdatedAt,
			})
		}
		writeJSON(w, map[string]any{"items": out, "limit": limit, "offset": offset})
	}
}

// adminIntentStatusHandler cross-checks a payout intent against the signer:
// a reverted intent whose transfer the signer reports confirmed was
// under-counted and needs manual correction.
func adminIntentStatusHandler(st *store.Store, bridge settlement.Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		intentID := chi.URLParam(r, "intentID")
		intent, err := st.GetPayoutIntent(r.Context(), intentID)
		if err != nil {
			if err == store.ErrNotFound {
				writeHTTPError(w, http.StatusNotFound, "intent_not_found")
				return
			}
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		signerStatus, err := bridge.Status(r.Context(), intent.ID)
		if err != nil {
			signerStatus = settlement.StatusUnknown
		}
		writeJSON(w, map[string]any{
			"id":            intent.ID,
			"state":         intent.State,
			"signer_status": signerStatus,
			"mismatch": intent.State == store.IntentStateReverted &&
				signerStatus == settlement.StatusConfirmed,
		})
	}
}
