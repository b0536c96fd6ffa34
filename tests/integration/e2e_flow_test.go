//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestE2E_ApprovalFlow walks the happy path over HTTP:
// admin configures a method and a promo code, a learner previews the
// discount, submits a payment and an admin approves it.
func TestE2E_ApprovalFlow(t *testing.T) {
	cleanupTables(t)

	learnerID := uuid.New()
	learner := tokenFor(t, learnerID, "learner")
	admin := tokenFor(t, uuid.New(), "admin")

	courseID := seedCourse(t, "Intro to Go", 10000)

	// Admin configures the bank transfer method with a 2% fee.
	enabled := true
	resp := doJSON(t, http.MethodPut, "/api/admin/payment-methods/bank_transfer", admin, map[string]interface{}{
		"display_name": "Bank Transfer",
		"is_enabled":   enabled,
		"min_amount":   1000,
		"max_amount":   1000000,
		"fee_percent":  2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Admin creates a 20% promo code.
	resp = doJSON(t, http.MethodPost, "/api/admin/promo-codes", admin, map[string]interface{}{
		"code":            "launch20",
		"discount_type":   "percentage",
		"discount_value":  20,
		"applicable_type": "all",
		"max_uses":        100,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Learner previews the discount. The code is matched case-insensitively.
	resp = doJSON(t, http.MethodPost, "/api/promo-codes/validate", learner, map[string]interface{}{
		"code":        "LAUNCH20",
		"target_type": "course",
		"target_id":   courseID.String(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var preview struct {
		OK       bool `json:"ok"`
		Discount struct {
			Type  string `json:"discount_type"`
			Value int64  `json:"discount_value"`
		} `json:"discount"`
	}
	readJSONResponse(t, resp, &preview)
	assert.True(t, preview.OK)
	assert.Equal(t, "percentage", preview.Discount.Type)
	assert.Equal(t, int64(20), preview.Discount.Value)

	// Learner submits. Fee applies to the discounted amount:
	// 10000 - 2000 = 8000, fee 2% = 160, total 8160.
	resp = doJSON(t, http.MethodPost, "/api/payments", learner, map[string]interface{}{
		"target_type":       "course",
		"target_id":         courseID.String(),
		"payment_method":    "bank_transfer",
		"payment_reference": "TRX-0001",
		"proof_ref":         "proofs/trx-0001.png",
		"promo_code":        "launch20",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var txn struct {
		ID                 uuid.UUID `json:"id"`
		OriginalAmount     int64     `json:"original_amount"`
		DiscountAmount     int64     `json:"discount_amount"`
		Amount             int64     `json:"amount"`
		FeeAmount          int64     `json:"fee_amount"`
		TotalAmount        int64     `json:"total_amount"`
		Status             string    `json:"status"`
		VerificationStatus string    `json:"verification_status"`
	}
	readJSONResponse(t, resp, &txn)
	assert.Equal(t, int64(10000), txn.OriginalAmount)
	assert.Equal(t, int64(2000), txn.DiscountAmount)
	assert.Equal(t, int64(8000), txn.Amount)
	assert.Equal(t, int64(160), txn.FeeAmount)
	assert.Equal(t, int64(8160), txn.TotalAmount)
	assert.Equal(t, "pending", txn.Status)
	assert.Equal(t, "pending", txn.VerificationStatus)

	// The verification queue shows the pending submission.
	resp = doJSON(t, http.MethodGet, "/api/admin/payments?verification_status=pending", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var queue struct {
		Payments []struct {
			ID uuid.UUID `json:"id"`
		} `json:"payments"`
	}
	readJSONResponse(t, resp, &queue)
	require.Len(t, queue.Payments, 1)
	assert.Equal(t, txn.ID, queue.Payments[0].ID)

	// Admin approves.
	resp = doJSON(t, http.MethodPost, "/api/admin/payments/"+txn.ID.String()+"/approve", admin, map[string]interface{}{
		"notes": "proof verified",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var approved struct {
		Status             string `json:"status"`
		VerificationStatus string `json:"verification_status"`
	}
	readJSONResponse(t, resp, &approved)
	assert.Equal(t, "completed", approved.Status)
	assert.Equal(t, "approved", approved.VerificationStatus)

	// Approval consumed one promo use.
	assert.Equal(t, 1, promoUsedCount(t, "LAUNCH20"))

	// A second decision on the settled transaction is refused.
	resp = doJSON(t, http.MethodPost, "/api/admin/payments/"+txn.ID.String()+"/approve", admin, map[string]interface{}{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// The audit trail has the submission and the approval.
	resp = doJSON(t, http.MethodGet, "/api/admin/payments/"+txn.ID.String()+"/history", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history struct {
		History []struct {
			Action string `json:"action"`
		} `json:"history"`
	}
	readJSONResponse(t, resp, &history)
	require.Len(t, history.History, 2)
	assert.Equal(t, "submitted", history.History[0].Action)
	assert.Equal(t, "approved", history.History[1].Action)

	// The learner sees the settled transaction in their own list.
	resp = doJSON(t, http.MethodGet, "/api/payments/"+txn.ID.String(), learner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine struct {
		Status string `json:"status"`
	}
	readJSONResponse(t, resp, &mine)
	assert.Equal(t, "completed", mine.Status)
}

// TestE2E_RejectAndResubmit verifies the pending-only idempotency window:
// a rejected submission does not block the learner from trying again with
// the same payment reference.
func TestE2E_RejectAndResubmit(t *testing.T) {
	cleanupTables(t)

	learner := tokenFor(t, uuid.New(), "learner")
	admin := tokenFor(t, uuid.New(), "admin")

	seedMethod(t, "bank_transfer", 0, 0, 0)
	courseID := seedCourse(t, "Databases", 25000)

	submit := map[string]interface{}{
		"target_type":       "course",
		"target_id":         courseID.String(),
		"payment_method":    "bank_transfer",
		"payment_reference": "TRX-0002",
		"proof_ref":         "proofs/trx-0002.png",
	}

	resp := doJSON(t, http.MethodPost, "/api/payments", learner, submit)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var first struct {
		ID uuid.UUID `json:"id"`
	}
	readJSONResponse(t, resp, &first)

	// A second identical submission while the first is pending is a conflict.
	resp = doJSON(t, http.MethodPost, "/api/payments", learner, submit)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Rejection requires a reason.
	resp = doJSON(t, http.MethodPost, "/api/admin/payments/"+first.ID.String()+"/reject", admin, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, "/api/admin/payments/"+first.ID.String()+"/reject", admin, map[string]interface{}{
		"reason": "proof does not match the reference",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rejected struct {
		Status             string `json:"status"`
		VerificationStatus string `json:"verification_status"`
		RejectionReason    string `json:"rejection_reason"`
	}
	readJSONResponse(t, resp, &rejected)
	assert.Equal(t, "failed", rejected.Status)
	assert.Equal(t, "rejected", rejected.VerificationStatus)
	assert.Equal(t, "proof does not match the reference", rejected.RejectionReason)

	// The rejected row no longer occupies the idempotency window.
	resp = doJSON(t, http.MethodPost, "/api/payments", learner, submit)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

// TestE2E_CancelAndRefund covers the learner-side exits: cancelling a
// pending submission and requesting a refund on a settled one.
func TestE2E_CancelAndRefund(t *testing.T) {
	cleanupTables(t)

	learnerID := uuid.New()
	learner := tokenFor(t, learnerID, "learner")
	admin := tokenFor(t, uuid.New(), "admin")

	seedMethod(t, "bank_transfer", 0, 0, 0)
	courseID := seedCourse(t, "Networking", 30000)

	// Cancel a pending submission.
	resp := doJSON(t, http.MethodPost, "/api/payments", learner, map[string]interface{}{
		"target_type":       "course",
		"target_id":         courseID.String(),
		"payment_method":    "bank_transfer",
		"payment_reference": "TRX-0003",
		"proof_ref":         "proofs/trx-0003.png",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var pending struct {
		ID uuid.UUID `json:"id"`
	}
	readJSONResponse(t, resp, &pending)

	resp = doJSON(t, http.MethodPost, "/api/payments/"+pending.ID.String()+"/cancel", learner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cancelled struct {
		Status string `json:"status"`
	}
	readJSONResponse(t, resp, &cancelled)
	assert.Equal(t, "cancelled", cancelled.Status)

	// Another learner cannot cancel or read someone else's transaction.
	stranger := tokenFor(t, uuid.New(), "learner")
	resp = doJSON(t, http.MethodGet, "/api/payments/"+pending.ID.String(), stranger, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Settle a second payment, then run the refund workflow on it.
	resp = doJSON(t, http.MethodPost, "/api/payments", learner, map[string]interface{}{
		"target_type":       "course",
		"target_id":         courseID.String(),
		"payment_method":    "bank_transfer",
		"payment_reference": "TRX-0004",
		"proof_ref":         "proofs/trx-0004.png",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var settled struct {
		ID          uuid.UUID `json:"id"`
		TotalAmount int64     `json:"total_amount"`
	}
	readJSONResponse(t, resp, &settled)

	resp = doJSON(t, http.MethodPost, "/api/admin/payments/"+settled.ID.String()+"/approve", admin, map[string]interface{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// A refund above the paid total is refused.
	resp = doJSON(t, http.MethodPost, "/api/refunds", learner, map[string]interface{}{
		"transaction_id": settled.ID.String(),
		"amount":         settled.TotalAmount + 1,
		"reason":         "changed my mind",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, "/api/refunds", learner, map[string]interface{}{
		"transaction_id": settled.ID.String(),
		"amount":         settled.TotalAmount,
		"reason":         "changed my mind",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var refund struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	readJSONResponse(t, resp, &refund)
	assert.Equal(t, "pending", refund.Status)

	resp = doJSON(t, http.MethodPost, "/api/admin/refunds/"+refund.ID.String()+"/decide", admin, map[string]interface{}{
		"approve": true,
		"notes":   "refund wired",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var decided struct {
		Status string `json:"status"`
	}
	readJSONResponse(t, resp, &decided)
	assert.Equal(t, "approved", decided.Status)

	// A decided refund cannot be decided again.
	resp = doJSON(t, http.MethodPost, "/api/admin/refunds/"+refund.ID.String()+"/decide", admin, map[string]interface{}{
		"approve": false,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

// TestE2E_AuthBoundaries verifies the token and role gates on the API.
func TestE2E_AuthBoundaries(t *testing.T) {
	cleanupTables(t)

	learner := tokenFor(t, uuid.New(), "learner")

	resp := doJSON(t, http.MethodGet, "/api/payments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, "/api/admin/payments", learner, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, "/api/payments", learner, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
