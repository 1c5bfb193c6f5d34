package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"medichart/m/domain"
	"medichart/m/internal/rx"
)

const patientColumns = `id, first_name, last_name, date_of_birth, gender, phone, email, address, allergies, medications, created_at, updated_at`

func (h *Handler) createPatient(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "doctor", "admin") {
		return
	}
	var p domain.Patient
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		respondError(w, http.StatusBadRequest, "first_name and last_name are required")
		return
	}

	var id int64
	err := h.db.QueryRowx(`INSERT INTO patients (first_name, last_name, date_of_birth, gender, phone, email, address, allergies, medications)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone, p.Email, p.Address, p.Allergies, p.Medications).Scan(&id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create patient")
		return
	}
	p.ID = id
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handler) listPatients(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	var patients []domain.Patient
	var err error
	if query == "" {
		err = h.db.Select(&patients, `SELECT `+patientColumns+` FROM patients ORDER BY last_name, first_name LIMIT 50`)
	} else {
		like := "%" + query + "%"
		err = h.db.Select(&patients, `SELECT `+patientColumns+` FROM patients WHERE first_name LIKE ? OR last_name LIKE ? ORDER BY last_name, first_name LIMIT 50`, like, like)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list patients")
		return
	}
	if patients == nil {
		patients = []domain.Patient{}
	}
	respondJSON(w, http.StatusOK, patients)
}

func (h *Handler) getPatient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid patient id")
		return
	}
	var p domain.Patient
	err = h.db.Get(&p, `SELECT `+patientColumns+` FROM patients WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "patient not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch patient")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) updatePatient(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "doctor", "admin") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid patient id")
		return
	}
	var p domain.Patient
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		respondError(w, http.StatusBadRequest, "first_name and last_name are required")
		return
	}
	res, err := h.db.Exec(`UPDATE patients SET first_name = ?, last_name = ?, date_of_birth = ?, gender = ?, phone = ?, email = ?, address = ?, allergies = ?, medications = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone, p.Email, p.Address, p.Allergies, p.Medications, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update patient")
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		respondError(w, http.StatusNotFound, "patient not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) deletePatient(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "admin") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid patient id")
		return
	}
	res, err := h.db.Exec(`DELETE FROM patients WHERE id = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete patient")
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		respondError(w, http.StatusNotFound, "patient not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// patientAllergies surfaces the advisory allergy banner shown beside the
// prescription form. A missing patient degrades to "No allergies recorded"
// rather than failing the form.
func (h *Handler) patientAllergies(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid patient id")
		return
	}
	var p domain.Patient
	err = h.db.Get(&p, `SELECT `+patientColumns+` FROM patients WHERE id = ?`, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusInternalServerError, "unable to fetch patient")
		return
	}

	var allergies []string
	if err == nil {
		allergies = rx.ListAllergies(&p)
	}
	if allergies == nil {
		allergies = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"allergies": allergies,
		"display":   rx.AllergyBanner(allergies),
	})
}
