package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"medichart/m/domain"
	"medichart/m/internal/rx"
)

const prescriptionColumns = `id, patient_id, doctor_id, diagnosis, notes, start_date, end_date, status, created_at, updated_at`

const lineColumns = `id, prescription_id, position, name, dosage, frequency, duration, instructions, quantity, refills`

func (h *Handler) createPrescription(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "doctor", "admin") {
		return
	}
	var p domain.Prescription
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rx.ApplyDefaults(&p, h.now())
	if errs := rx.Validate(p); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}
	if !rx.ValidStatus(p.Status) {
		respondError(w, http.StatusBadRequest, "status must be ACTIVE, COMPLETED or CANCELLED")
		return
	}
	if err := rx.SyncEndDate(&p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doctorID := r.Context().Value(ctxUserID).(int64)
	if p.DoctorID == nil {
		p.DoctorID = &doctorID
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start prescription")
		return
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowx(`INSERT INTO prescriptions (patient_id, doctor_id, diagnosis, notes, start_date, end_date, status)
                VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		p.PatientID, p.DoctorID, p.Diagnosis, p.Notes, p.StartDate, p.EndDate, p.Status).Scan(&id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create prescription")
		return
	}

	if err := insertLines(tx, id, p.Medications); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save medications")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize prescription")
		return
	}

	created, err := h.loadPrescription(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch prescription")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func insertLines(tx *sqlx.Tx, prescriptionID int64, lines []domain.MedicationLine) error {
	for i, med := range lines {
		_, err := tx.Exec(`INSERT INTO prescription_medications (prescription_id, position, name, dosage, frequency, duration, instructions, quantity, refills)
                        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			prescriptionID, i, med.Name, med.Dosage, med.Frequency, med.Duration, med.Instructions, med.Quantity, med.Refills)
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) listPrescriptions(w http.ResponseWriter, r *http.Request) {
	var (
		args    []any
		clauses []string
	)

	patientIDStr := strings.TrimSpace(r.URL.Query().Get("patient_id"))
	if patientIDStr != "" {
		patientID, err := strconv.ParseInt(patientIDStr, 10, 64)
		if err != nil || patientID <= 0 {
			respondError(w, http.StatusBadRequest, "invalid patient_id")
			return
		}
		args = append(args, patientID)
		clauses = append(clauses, "patient_id = ?")
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" {
		if !rx.ValidStatus(domain.PrescriptionStatus(status)) {
			respondError(w, http.StatusBadRequest, "status must be ACTIVE, COMPLETED or CANCELLED")
			return
		}
		args = append(args, status)
		clauses = append(clauses, "status = ?")
	}

	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var prescriptions []domain.Prescription
	if err := h.db.Select(&prescriptions, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list prescriptions")
		return
	}
	if len(prescriptions) == 0 {
		respondJSON(w, http.StatusOK, []domain.Prescription{})
		return
	}

	ids := make([]int64, len(prescriptions))
	for i, p := range prescriptions {
		ids[i] = p.ID
	}

	linesQuery, linesArgs, err := sqlx.In(`SELECT `+lineColumns+` FROM prescription_medications WHERE prescription_id IN (?) ORDER BY prescription_id, position`, ids)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to prepare medications query")
		return
	}
	linesQuery = h.db.Rebind(linesQuery)

	var lines []domain.MedicationLine
	if err := h.db.Select(&lines, linesQuery, linesArgs...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load medications")
		return
	}
	linesByPrescription := make(map[int64][]domain.MedicationLine)
	for _, line := range lines {
		linesByPrescription[line.PrescriptionID] = append(linesByPrescription[line.PrescriptionID], line)
	}
	for i := range prescriptions {
		prescriptions[i].Medications = linesByPrescription[prescriptions[i].ID]
	}

	respondJSON(w, http.StatusOK, prescriptions)
}

func (h *Handler) loadPrescription(id int64) (domain.Prescription, error) {
	var p domain.Prescription
	if err := h.db.Get(&p, `SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = ?`, id); err != nil {
		return p, err
	}
	if err := h.db.Select(&p.Medications, `SELECT `+lineColumns+` FROM prescription_medications WHERE prescription_id = ? ORDER BY position`, id); err != nil {
		return p, err
	}
	return p, nil
}

func (h *Handler) getPrescription(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid prescription id")
		return
	}
	p, err := h.loadPrescription(id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "prescription not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch prescription")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// updatePrescription replaces the whole document: the edit form re-submits
// header and all medication lines, never a partial patch.
func (h *Handler) updatePrescription(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "doctor", "admin") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid prescription id")
		return
	}
	var p domain.Prescription
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rx.ApplyDefaults(&p, h.now())
	if errs := rx.Validate(p); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}
	if !rx.ValidStatus(p.Status) {
		respondError(w, http.StatusBadRequest, "status must be ACTIVE, COMPLETED or CANCELLED")
		return
	}
	if err := rx.SyncEndDate(&p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start update")
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE prescriptions SET patient_id = ?, doctor_id = ?, diagnosis = ?, notes = ?, start_date = ?, end_date = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		p.PatientID, p.DoctorID, p.Diagnosis, p.Notes, p.StartDate, p.EndDate, p.Status, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update prescription")
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		respondError(w, http.StatusNotFound, "prescription not found")
		return
	}

	if _, err := tx.Exec(`DELETE FROM prescription_medications WHERE prescription_id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to replace medications")
		return
	}
	if err := insertLines(tx, id, p.Medications); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save medications")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize update")
		return
	}

	updated, err := h.loadPrescription(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch prescription")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deletePrescription(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "doctor", "admin") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid prescription id")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start delete")
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM prescription_medications WHERE prescription_id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete medications")
		return
	}
	res, err := tx.Exec(`DELETE FROM prescriptions WHERE id = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete prescription")
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		respondError(w, http.StatusNotFound, "prescription not found")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize delete")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) setPrescriptionStatus(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "doctor", "pharmacist", "admin") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid prescription id")
		return
	}
	var payload struct {
		Status domain.PrescriptionStatus `json:"status"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.loadPrescription(id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "prescription not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch prescription")
		return
	}

	updated, err := rx.SetStatus(p, payload.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.db.Exec(`UPDATE prescriptions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, updated.Status, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update status")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
