package payroll_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartikpanaganti/textlaire-sub002/internal/middleware"
	"github.com/kartikpanaganti/textlaire-sub002/internal/payroll"
	payrollerrors "github.com/kartikpanaganti/textlaire-sub002/internal/payroll/errors"
	"github.com/kartikpanaganti/textlaire-sub002/internal/shared/response"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func mustDecodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

type fakePayrollService struct {
	computePreviewFn      func(ctx context.Context, req payroll.PreviewRequest) (payroll.PreviewResponse, error)
	generateFn            func(ctx context.Context, req payroll.GeneratePayrollRequest) (payroll.PayrollResponse, error)
	generateAllFn         func(ctx context.Context, req payroll.GenerateAllRequest) (payroll.BulkGenerateResponse, error)
	checkOverlapFn        func(ctx context.Context, req payroll.CheckOverlapRequest) (payroll.OverlapResponse, error)
	recalculateFn         func(ctx context.Context, id string, req payroll.RecalculateRequest) (payroll.PayrollResponse, error)
	updatePaymentStatusFn func(ctx context.Context, id string, req payroll.UpdatePaymentStatusRequest) (payroll.PayrollResponse, error)
	getByIDFn             func(ctx context.Context, id string) (payroll.PayrollResponse, error)
	getAllByEmployeeFn    func(ctx context.Context, employeeID string) ([]payroll.PayrollResponse, error)
	deleteFn              func(ctx context.Context, id string) (payroll.DeleteResponse, error)
}

func (f *fakePayrollService) ComputePreview(ctx context.Context, req payroll.PreviewRequest) (payroll.PreviewResponse, error) {
	return f.computePreviewFn(ctx, req)
}

func (f *fakePayrollService) Generate(ctx context.Context, req payroll.GeneratePayrollRequest) (payroll.PayrollResponse, error) {
	return f.generateFn(ctx, req)
}

func (f *fakePayrollService) GenerateAll(ctx context.Context, req payroll.GenerateAllRequest) (payroll.BulkGenerateResponse, error) {
	return f.generateAllFn(ctx, req)
}

func (f *fakePayrollService) CheckOverlap(ctx context.Context, req payroll.CheckOverlapRequest) (payroll.OverlapResponse, error) {
	return f.checkOverlapFn(ctx, req)
}

func (f *fakePayrollService) Recalculate(ctx context.Context, id string, req payroll.RecalculateRequest) (payroll.PayrollResponse, error) {
	return f.recalculateFn(ctx, id, req)
}

func (f *fakePayrollService) UpdatePaymentStatus(ctx context.Context, id string, req payroll.UpdatePaymentStatusRequest) (payroll.PayrollResponse, error) {
	return f.updatePaymentStatusFn(ctx, id, req)
}

func (f *fakePayrollService) GetByID(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakePayrollService) GetAllByEmployee(ctx context.Context, employeeID string) ([]payroll.PayrollResponse, error) {
	return f.getAllByEmployeeFn(ctx, employeeID)
}

func (f *fakePayrollService) Delete(ctx context.Context, id string) (payroll.DeleteResponse, error) {
	return f.deleteFn(ctx, id)
}

func performJSON(h gin.HandlerFunc, method, path, body string, params ...gin.Param) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params

	h(c)
	return w
}

func TestPayrollHandler_Generate(t *testing.T) {
	employeeID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		svc := &fakePayrollService{
			generateFn: func(ctx context.Context, req payroll.GeneratePayrollRequest) (payroll.PayrollResponse, error) {
				assert.Equal(t, employeeID, req.EmployeeID)
				assert.Equal(t, "2026-01-01", req.PeriodStart)
				return payroll.PayrollResponse{
					ID:            uuid.New().String(),
					EmployeeID:    req.EmployeeID,
					PaymentStatus: payroll.StatusPending,
				}, nil
			},
		}
		h := payroll.NewHandler(svc)

		body := `{"employee_id":"` + employeeID + `","period_start":"2026-01-01","period_end":"2026-01-31"}`
		w := performJSON(h.Generate, http.MethodPost, "/payrolls", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := mustDecodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
	})

	t.Run("validation failure never reaches the service", func(t *testing.T) {
		svc := &fakePayrollService{
			generateFn: func(ctx context.Context, req payroll.GeneratePayrollRequest) (payroll.PayrollResponse, error) {
				t.Fatal("service must not be called")
				return payroll.PayrollResponse{}, nil
			},
		}
		h := payroll.NewHandler(svc)

		w := performJSON(h.Generate, http.MethodPost, "/payrolls", `{"employee_id":"not-a-uuid"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := mustDecodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
	})

	t.Run("service conflict maps to 409", func(t *testing.T) {
		svc := &fakePayrollService{
			generateFn: func(ctx context.Context, req payroll.GeneratePayrollRequest) (payroll.PayrollResponse, error) {
				return payroll.PayrollResponse{}, payrollerrors.ErrPayrollOverlap
			},
		}
		h := payroll.NewHandler(svc)

		body := `{"employee_id":"` + employeeID + `","period_start":"2026-01-01","period_end":"2026-01-31"}`
		w := performJSON(h.Generate, http.MethodPost, "/payrolls", body)

		assert.Equal(t, http.StatusConflict, w.Code)
		env := mustDecodeEnvelope(t, w.Body.Bytes())
		require.NotNil(t, env.Error)
		assert.Equal(t, "CONFLICT", env.Error.Code)
	})
}

func TestPayrollHandler_Preview(t *testing.T) {
	employeeID := uuid.New().String()

	svc := &fakePayrollService{
		computePreviewFn: func(ctx context.Context, req payroll.PreviewRequest) (payroll.PreviewResponse, error) {
			return payroll.PreviewResponse{
				EmployeeID: req.EmployeeID,
				NetSalary:  dec("29251.59"),
			}, nil
		},
	}
	h := payroll.NewHandler(svc)

	body := `{"employee_id":"` + employeeID + `","period_start":"2026-01-01","period_end":"2026-01-15"}`
	w := performJSON(h.Preview, http.MethodPost, "/payrolls/preview", body)

	assert.Equal(t, http.StatusOK, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)

	var resp payroll.PreviewResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "29251.59", resp.NetSalary.StringFixed(2))
}

func TestPayrollHandler_GenerateAll(t *testing.T) {
	svc := &fakePayrollService{
		generateAllFn: func(ctx context.Context, req payroll.GenerateAllRequest) (payroll.BulkGenerateResponse, error) {
			assert.Equal(t, 1, req.Month)
			assert.Equal(t, 2026, req.Year)
			return payroll.BulkGenerateResponse{
				Succeeded: []payroll.PayrollResponse{{ID: uuid.New().String()}},
				Failed:    []payroll.BulkFailure{{EmployeeID: uuid.New().String(), Message: "payroll already exists for this month"}},
			}, nil
		},
	}
	h := payroll.NewHandler(svc)

	w := performJSON(h.GenerateAll, http.MethodPost, "/payrolls/generate-all", `{"month":1,"year":2026}`)

	// Partial failure still returns 200 with both lists.
	assert.Equal(t, http.StatusOK, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)

	var resp payroll.BulkGenerateResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Len(t, resp.Succeeded, 1)
	assert.Len(t, resp.Failed, 1)
}

func TestPayrollHandler_UpdatePaymentStatus(t *testing.T) {
	payrollID := uuid.New().String()

	t.Run("invalid transition maps to 400", func(t *testing.T) {
		svc := &fakePayrollService{
			updatePaymentStatusFn: func(ctx context.Context, id string, req payroll.UpdatePaymentStatusRequest) (payroll.PayrollResponse, error) {
				return payroll.PayrollResponse{}, payrollerrors.ErrInvalidStatusTransition
			},
		}
		h := payroll.NewHandler(svc)

		w := performJSON(h.UpdatePaymentStatus, http.MethodPatch, "/payrolls/"+payrollID+"/status",
			`{"status":"Pending"}`, gin.Param{Key: "id", Value: payrollID})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := mustDecodeEnvelope(t, w.Body.Bytes())
		assert.Equal(t, "INVALID_STATE", env.Error.Code)
	})

	t.Run("binding rejects unknown status values", func(t *testing.T) {
		svc := &fakePayrollService{
			updatePaymentStatusFn: func(ctx context.Context, id string, req payroll.UpdatePaymentStatusRequest) (payroll.PayrollResponse, error) {
				t.Fatal("service must not be called")
				return payroll.PayrollResponse{}, nil
			},
		}
		h := payroll.NewHandler(svc)

		w := performJSON(h.UpdatePaymentStatus, http.MethodPatch, "/payrolls/"+payrollID+"/status",
			`{"status":"Draft"}`, gin.Param{Key: "id", Value: payrollID})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPayrollHandler_Delete(t *testing.T) {
	payrollID := uuid.New().String()

	svc := &fakePayrollService{
		deleteFn: func(ctx context.Context, id string) (payroll.DeleteResponse, error) {
			assert.Equal(t, payrollID, id)
			return payroll.DeleteResponse{Deleted: true, Warning: "payroll was already marked as Paid; the payment itself is not reversed by this deletion"}, nil
		},
	}
	h := payroll.NewHandler(svc)

	w := performJSON(h.Delete, http.MethodDelete, "/payrolls/"+payrollID, "", gin.Param{Key: "id", Value: payrollID})

	assert.Equal(t, http.StatusOK, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())

	var resp payroll.DeleteResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, resp.Deleted)
	assert.Contains(t, resp.Warning, "Paid")
}

func TestPayrollHandler_GetAll(t *testing.T) {
	t.Run("requires employee_id", func(t *testing.T) {
		h := payroll.NewHandler(&fakePayrollService{})
		w := performJSON(h.GetAll, http.MethodGet, "/payrolls", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("passes the filter through", func(t *testing.T) {
		employeeID := uuid.New().String()
		svc := &fakePayrollService{
			getAllByEmployeeFn: func(ctx context.Context, id string) ([]payroll.PayrollResponse, error) {
				assert.Equal(t, employeeID, id)
				return []payroll.PayrollResponse{{ID: uuid.New().String()}}, nil
			},
		}
		h := payroll.NewHandler(svc)

		w := performJSON(h.GetAll, http.MethodGet, "/payrolls?employee_id="+employeeID, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestPayrollHandler_GenerateStoresReplayRecord(t *testing.T) {
	employeeID := uuid.New().String()
	generated := payroll.PayrollResponse{
		ID:            uuid.New().String(),
		EmployeeID:    employeeID,
		PaymentStatus: payroll.StatusPending,
	}
	svc := &fakePayrollService{
		generateFn: func(ctx context.Context, req payroll.GeneratePayrollRequest) (payroll.PayrollResponse, error) {
			return generated, nil
		},
	}

	rdb, mock := redismock.NewClientMock()
	h := payroll.NewHandlerWithRedis(svc, rdb)

	// The stored record carries the original status and rendered envelope
	// so a replay answers exactly like the first response.
	envelope, err := json.Marshal(response.ApiEnvelope{Ok: true, Data: generated})
	require.NoError(t, err)
	cached, err := json.Marshal(middleware.CachedResponse{Status: http.StatusCreated, Body: envelope})
	require.NoError(t, err)

	cacheKey := "idemp:/payrolls:user-1:key-9"
	lockKey := cacheKey + ":lock"
	mock.ExpectSet(cacheKey, cached, 24*time.Hour).SetVal("OK")
	mock.ExpectDel(lockKey).SetVal(1)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"employee_id":"` + employeeID + `","period_start":"2026-01-01","period_end":"2026-01-31"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/payrolls", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("idempotency_cache_key", cacheKey)
	c.Set("idempotency_lock_key", lockKey)

	h.Generate(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
