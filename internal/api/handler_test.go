package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"medichart/m/domain"
	"medichart/m/internal/migrations"
	"medichart/m/internal/rx"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)

	h := New(db, "test_secret")
	h.now = func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }
	return h.Router()
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerStaff(t *testing.T, router http.Handler, role string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "test_" + role,
		"email":    role + "@example.com",
		"password": "s3cret!pass",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func createTestPatient(t *testing.T, router http.Handler, token string) int64 {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/patients/", token, domain.Patient{
		FirstName:   "Jordan",
		LastName:    "Reyes",
		DateOfBirth: "1987-04-12",
		Gender:      "female",
		Allergies:   domain.StringList{"Penicillin", "Sulfa"},
		Medications: domain.StringList{"Lisinopril"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p domain.Patient
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.NotZero(t, p.ID)
	return p.ID
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "x", "email": "x@example.com", "password": "pw12345678", "role": "janitor",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPrescriptionRoundTrip(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "doctor")
	patientID := createTestPatient(t, router, token)

	rec := doJSON(t, router, http.MethodPost, "/prescriptions/", token, domain.Prescription{
		PatientID: patientID,
		Diagnosis: "Acute sinusitis",
		StartDate: "2024-01-01",
		Medications: []domain.MedicationLine{
			{Name: "Amoxicillin", Dosage: "500mg", Frequency: "Three times daily", Duration: "30 days", Quantity: 90, Refills: 1},
			{Name: "Ibuprofen", Dosage: "200mg", Frequency: "As needed", Duration: "Until finished", Quantity: 20, Refills: 0},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created domain.Prescription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, domain.PrescriptionActive, created.Status)
	require.NotNil(t, created.EndDate)
	assert.Equal(t, "2024-01-31", *created.EndDate)
	assert.NotEmpty(t, created.CreatedAt)
	assert.NotEmpty(t, created.UpdatedAt)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/prescriptions/%d", created.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var fetched domain.Prescription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))

	// A stored prescription reads back valid, with line order preserved.
	assert.Empty(t, rx.Validate(fetched))
	require.Len(t, fetched.Medications, 2)
	assert.Equal(t, "Amoxicillin", fetched.Medications[0].Name)
	assert.Equal(t, "Ibuprofen", fetched.Medications[1].Name)
	assert.Equal(t, created.Status, fetched.Status)
	require.NotNil(t, fetched.EndDate)
	assert.Equal(t, "2024-01-31", *fetched.EndDate)
}

func TestPrescriptionValidationBlocksSubmission(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "doctor")

	rec := doJSON(t, router, http.MethodPost, "/prescriptions/", token, domain.Prescription{
		StartDate: "2024-01-01",
		Medications: []domain.MedicationLine{
			{Name: "Amoxicillin", Dosage: "500mg", Frequency: "Three times daily", Duration: "10 days", Quantity: 30},
			{Name: "", Dosage: "", Frequency: "Daily", Duration: "5 days", Quantity: 0},
		},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "patientId")
	assert.Contains(t, resp.Errors, "diagnosis")
	assert.Contains(t, resp.Errors, "medication_1_name")
	assert.Contains(t, resp.Errors, "medication_1_quantity")
	assert.NotContains(t, resp.Errors, "medication_0_name")
}

func TestPrescriptionFullReplaceResyncsEndDate(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "doctor")
	patientID := createTestPatient(t, router, token)

	base := domain.Prescription{
		PatientID: patientID,
		Diagnosis: "Hypertension",
		StartDate: "2024-01-01",
		Medications: []domain.MedicationLine{
			{Name: "Lisinopril", Dosage: "10mg", Frequency: "Once daily", Duration: "30 days", Quantity: 30},
		},
	}
	rec := doJSON(t, router, http.MethodPost, "/prescriptions/", token, base)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.Prescription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// Editing the first line's duration overwrites the stored end date.
	created.Medications[0].Duration = "90 days"
	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/prescriptions/%d", created.ID), token, created)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated domain.Prescription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.NotNil(t, updated.EndDate)
	assert.Equal(t, "2024-03-31", *updated.EndDate)
}

func TestPrescriptionStatusEndpoint(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "doctor")
	patientID := createTestPatient(t, router, token)

	rec := doJSON(t, router, http.MethodPost, "/prescriptions/", token, domain.Prescription{
		PatientID: patientID,
		Diagnosis: "Bronchitis",
		StartDate: "2024-01-01",
		Medications: []domain.MedicationLine{
			{Name: "Azithromycin", Dosage: "250mg", Frequency: "Once daily", Duration: "5 days", Quantity: 5},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Prescription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/prescriptions/%d/status", created.ID), token,
		map[string]string{"status": "COMPLETED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Prescription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, domain.PrescriptionCompleted, updated.Status)

	// Out-of-enum statuses fail fast instead of being stored.
	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/prescriptions/%d/status", created.ID), token,
		map[string]string{"status": "ON_HOLD"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPrescriptionHardDelete(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "doctor")
	patientID := createTestPatient(t, router, token)

	rec := doJSON(t, router, http.MethodPost, "/prescriptions/", token, domain.Prescription{
		PatientID: patientID,
		Diagnosis: "Migraine",
		StartDate: "2024-01-01",
		Medications: []domain.MedicationLine{
			{Name: "Sumatriptan", Dosage: "50mg", Frequency: "As needed", Duration: "As directed", Quantity: 9},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Prescription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/prescriptions/%d", created.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/prescriptions/%d", created.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAllergyAdvisory(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "doctor")
	patientID := createTestPatient(t, router, token)

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/patients/%d/allergies", patientID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Allergies []string `json:"allergies"`
		Display   string   `json:"display"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Penicillin", "Sulfa"}, resp.Allergies)
	assert.Equal(t, "Penicillin, Sulfa", resp.Display)

	// A missing patient degrades to the empty banner instead of failing.
	rec = doJSON(t, router, http.MethodGet, "/patients/9999/allergies", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Allergies)
	assert.Equal(t, rx.NoAllergiesRecorded, resp.Display)
}

func createTestItem(t *testing.T, router http.Handler, token string, body map[string]any) map[string]any {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/inventory/", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestInventoryStockStatusLifecycle(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "pharmacist")

	view := createTestItem(t, router, token, map[string]any{
		"name":                "Amoxicillin 500mg Capsules",
		"sku":                 "med-amx500",
		"quantity":            10,
		"low_stock_threshold": 10,
		"cost_price":          4.0,
		"selling_price":       7.5,
	})
	id := int64(view["id"].(float64))
	assert.Equal(t, "LOW_STOCK", view["status"])
	assert.Equal(t, "MED-AMX500", view["sku"])
	assert.Equal(t, "Prescription Drugs", view["category"])
	assert.NotEmpty(t, view["created_at"])
	assert.NotEmpty(t, view["updated_at"])

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/inventory/%d/stock", id), token, map[string]any{"quantity": 11})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "IN_STOCK", view["status"])

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/inventory/%d/stock", id), token, map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "OUT_OF_STOCK", view["status"])

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/inventory/%d/discontinue", id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "DISCONTINUED", view["status"])

	// Stock movements no longer change a discontinued item's status.
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/inventory/%d/stock", id), token, map[string]any{"quantity": 500})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "DISCONTINUED", view["status"])
}

func TestInventoryEconomicsZeroCostGuard(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "pharmacist")

	view := createTestItem(t, router, token, map[string]any{
		"name":          "Donated Gauze Rolls",
		"sku":           "SUP-GAUZE1",
		"category":      "First Aid",
		"quantity":      40,
		"cost_price":    0.0,
		"selling_price": 50.0,
	})
	assert.Equal(t, 50.0, view["profit_per_unit"])
	assert.Equal(t, 0.0, view["profit_margin_percent"])
	assert.Equal(t, 0.0, view["stock_value"])
	assert.Equal(t, 2000.0, view["potential_revenue"])
}

func TestInventorySKUConflict(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "pharmacist")

	body := map[string]any{
		"name":          "Ibuprofen 200mg",
		"sku":           "OTC-IBU200",
		"category":      "Over-the-Counter",
		"quantity":      100,
		"cost_price":    1.0,
		"selling_price": 2.0,
	}
	createTestItem(t, router, token, body)

	rec := doJSON(t, router, http.MethodPost, "/inventory/", token, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// An out-of-enum status is a contract violation and must fail fast, never
// be stored and coerced on read.
func TestInventoryRejectsUnknownStatus(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "pharmacist")

	rec := doJSON(t, router, http.MethodPost, "/inventory/", token, map[string]any{
		"name":          "Frozen Plasma",
		"sku":           "LAB-FFP001",
		"quantity":      12,
		"cost_price":    30.0,
		"selling_price": 45.0,
		"status":        "FROZEN",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestInventoryRejectsPriceInversion(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "pharmacist")

	rec := doJSON(t, router, http.MethodPost, "/inventory/", token, map[string]any{
		"name":          "Mispriced Item",
		"sku":           "BAD-PRICE1",
		"quantity":      5,
		"cost_price":    10.0,
		"selling_price": 9.0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInventoryRoleEnforcement(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "lab")

	rec := doJSON(t, router, http.MethodPost, "/inventory/", token, map[string]any{
		"name": "X", "sku": "X-1", "quantity": 1, "cost_price": 1.0, "selling_price": 2.0,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// An empty catalog encodes as an empty list, not JSON null.
func TestMedicationSearchEmptyCatalog(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "doctor")

	rec := doJSON(t, router, http.MethodGet, "/medications?query=nomatch", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var meds []domain.Medication
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meds))
	assert.NotNil(t, meds)
	assert.Empty(t, meds)
}

func TestSKUSuggestionEndpoint(t *testing.T) {
	router := newTestRouter(t)
	token := registerStaff(t, router, "pharmacist")

	rec := doJSON(t, router, http.MethodGet, "/inventory/sku-suggestion", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Regexp(t, `^MED-[0-9A-Z]{6}$`, resp["sku"])
}
