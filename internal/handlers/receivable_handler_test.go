package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "platita/internal/errors"
	"platita/internal/models"
	"platita/internal/services"
)

// --- mock services ---

type mockReceivableService struct {
	markReceivableFn             func(userID, movementID string, note *string) (*models.Movement, error)
	unmarkReceivableFn           func(userID, movementID string) (*models.Movement, error)
	markAsReceivedFn             func(userID, movementID string, accountID *string) (*models.Movement, error)
	markAsReceivedWithExistingFn func(userID, receivableID, incomeID string) error
}

var _ services.ReceivableServicer = (*mockReceivableService)(nil)

func (m *mockReceivableService) MarkReceivable(userID, movementID string, note *string) (*models.Movement, error) {
	if m.markReceivableFn != nil {
		return m.markReceivableFn(userID, movementID, note)
	}
	return &models.Movement{Base: models.Base{ID: movementID}, Receivable: true}, nil
}

func (m *mockReceivableService) UnmarkReceivable(userID, movementID string) (*models.Movement, error) {
	if m.unmarkReceivableFn != nil {
		return m.unmarkReceivableFn(userID, movementID)
	}
	return &models.Movement{Base: models.Base{ID: movementID}}, nil
}

func (m *mockReceivableService) MarkAsReceived(userID, movementID string, accountID *string) (*models.Movement, error) {
	if m.markAsReceivedFn != nil {
		return m.markAsReceivedFn(userID, movementID, accountID)
	}
	return &models.Movement{Base: models.Base{ID: movementID}, Receivable: true, Received: true}, nil
}

func (m *mockReceivableService) MarkAsReceivedWithExisting(userID, receivableID, incomeID string) error {
	if m.markAsReceivedWithExistingFn != nil {
		return m.markAsReceivedWithExistingFn(userID, receivableID, incomeID)
	}
	return nil
}

// --- test helpers ---

const testIncomeID = "0190a1b2-c3d4-7e5f-8a9b-666666666666"

func setupReceivableRouter(handler *ReceivableHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/movements/:id/receivable", handler.MarkReceivable)
	auth.DELETE("/movements/:id/receivable", handler.UnmarkReceivable)
	auth.POST("/movements/:id/received", handler.MarkAsReceived)
	auth.POST("/movements/:id/received/link", handler.LinkPayment)
	return r
}

// --- tests ---

func TestReceivableHandler_MarkReceivable(t *testing.T) {
	t.Run("returns 200 and forwards the note", func(t *testing.T) {
		var capturedNote *string
		receivableSvc := &mockReceivableService{
			markReceivableFn: func(_, movementID string, note *string) (*models.Movement, error) {
				capturedNote = note
				return &models.Movement{Base: models.Base{ID: movementID}, Name: *note, Receivable: true}, nil
			},
		}
		handler := NewReceivableHandler(receivableSvc, &mockAuditService{})
		r := setupReceivableRouter(handler)

		rec := doRequest(r, "POST", "/movements/"+testMovementID+"/receivable", `{"note":"Juan me debe"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if capturedNote == nil || *capturedNote != "Juan me debe" {
			t.Errorf("expected note Juan me debe, got %+v", capturedNote)
		}
		result := parseJSON(t, rec)
		movement := result["movement"].(map[string]interface{})
		if movement["receivable"] != true {
			t.Error("expected receivable flag in response")
		}
	})

	t.Run("returns 400 on transfer leg", func(t *testing.T) {
		receivableSvc := &mockReceivableService{
			markReceivableFn: func(_, _ string, _ *string) (*models.Movement, error) {
				return nil, apperrors.ErrMovementNotEditable
			},
		}
		handler := NewReceivableHandler(receivableSvc, &mockAuditService{})
		r := setupReceivableRouter(handler)

		rec := doRequest(r, "POST", "/movements/"+testMovementID+"/receivable", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReceivableHandler_MarkAsReceived(t *testing.T) {
	t.Run("returns 200 with a payment account", func(t *testing.T) {
		var capturedAccount *string
		receivableSvc := &mockReceivableService{
			markAsReceivedFn: func(_, movementID string, accountID *string) (*models.Movement, error) {
				capturedAccount = accountID
				return &models.Movement{Base: models.Base{ID: movementID}, Receivable: true, Received: true}, nil
			},
		}
		handler := NewReceivableHandler(receivableSvc, &mockAuditService{})
		r := setupReceivableRouter(handler)

		rec := doRequest(r, "POST", "/movements/"+testMovementID+"/received",
			`{"account_id":"`+testToAccountID+`"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if capturedAccount == nil || *capturedAccount != testToAccountID {
			t.Errorf("expected account %s, got %+v", testToAccountID, capturedAccount)
		}
	})

	t.Run("returns 200 without an account", func(t *testing.T) {
		var capturedAccount *string
		called := false
		receivableSvc := &mockReceivableService{
			markAsReceivedFn: func(_, movementID string, accountID *string) (*models.Movement, error) {
				called = true
				capturedAccount = accountID
				return &models.Movement{Base: models.Base{ID: movementID}, Receivable: true, Received: true}, nil
			},
		}
		handler := NewReceivableHandler(receivableSvc, &mockAuditService{})
		r := setupReceivableRouter(handler)

		rec := doRequest(r, "POST", "/movements/"+testMovementID+"/received", `{}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !called || capturedAccount != nil {
			t.Errorf("expected a nil account, got %+v", capturedAccount)
		}
	})

	t.Run("returns 409 when already settled", func(t *testing.T) {
		receivableSvc := &mockReceivableService{
			markAsReceivedFn: func(_, _ string, _ *string) (*models.Movement, error) {
				return nil, apperrors.ErrReceivableAlreadyResolved
			},
		}
		handler := NewReceivableHandler(receivableSvc, &mockAuditService{})
		r := setupReceivableRouter(handler)

		rec := doRequest(r, "POST", "/movements/"+testMovementID+"/received", `{}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "RECEIVABLE_ALREADY_RESOLVED")
	})

	t.Run("returns 400 when not a receivable", func(t *testing.T) {
		receivableSvc := &mockReceivableService{
			markAsReceivedFn: func(_, _ string, _ *string) (*models.Movement, error) {
				return nil, apperrors.ErrNotAReceivable
			},
		}
		handler := NewReceivableHandler(receivableSvc, &mockAuditService{})
		r := setupReceivableRouter(handler)

		rec := doRequest(r, "POST", "/movements/"+testMovementID+"/received", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NOT_A_RECEIVABLE")
	})
}

func TestReceivableHandler_LinkPayment(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		var linkedIncome string
		receivableSvc := &mockReceivableService{
			markAsReceivedWithExistingFn: func(_, receivableID, incomeID string) error {
				if receivableID != testMovementID {
					t.Errorf("expected receivable %s, got %s", testMovementID, receivableID)
				}
				linkedIncome = incomeID
				return nil
			},
		}
		handler := NewReceivableHandler(receivableSvc, &mockAuditService{})
		r := setupReceivableRouter(handler)

		rec := doRequest(r, "POST", "/movements/"+testMovementID+"/received/link",
			`{"income_id":"`+testIncomeID+`"}`)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}
		if linkedIncome != testIncomeID {
			t.Errorf("expected income %s, got %s", testIncomeID, linkedIncome)
		}
	})

	t.Run("returns 400 on missing income_id", func(t *testing.T) {
		handler := NewReceivableHandler(&mockReceivableService{}, &mockAuditService{})
		r := setupReceivableRouter(handler)

		rec := doRequest(r, "POST", "/movements/"+testMovementID+"/received/link", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 when income already settles another receivable", func(t *testing.T) {
		receivableSvc := &mockReceivableService{
			markAsReceivedWithExistingFn: func(_, _, _ string) error {
				return apperrors.ErrPaymentAlreadyLinked
			},
		}
		handler := NewReceivableHandler(receivableSvc, &mockAuditService{})
		r := setupReceivableRouter(handler)

		rec := doRequest(r, "POST", "/movements/"+testMovementID+"/received/link",
			`{"income_id":"`+testIncomeID+`"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PAYMENT_ALREADY_LINKED")
	})
}

func TestReceivableHandler_UnmarkReceivable(t *testing.T) {
	t.Run("returns 200 with cleared flags", func(t *testing.T) {
		receivableSvc := &mockReceivableService{
			unmarkReceivableFn: func(_, movementID string) (*models.Movement, error) {
				return &models.Movement{Base: models.Base{ID: movementID}}, nil
			},
		}
		handler := NewReceivableHandler(receivableSvc, &mockAuditService{})
		r := setupReceivableRouter(handler)

		rec := doRequest(r, "DELETE", "/movements/"+testMovementID+"/receivable", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		movement := result["movement"].(map[string]interface{})
		if movement["receivable"] == true {
			t.Error("expected receivable flag cleared")
		}
	})

	t.Run("returns 400 when not a receivable", func(t *testing.T) {
		receivableSvc := &mockReceivableService{
			unmarkReceivableFn: func(_, _ string) (*models.Movement, error) {
				return nil, apperrors.ErrNotAReceivable
			},
		}
		handler := NewReceivableHandler(receivableSvc, &mockAuditService{})
		r := setupReceivableRouter(handler)

		rec := doRequest(r, "DELETE", "/movements/"+testMovementID+"/receivable", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
