package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"caresync/internal/db"
	"caresync/pkg"
)

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var in pkg.PatientInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.FullName) == "" || strings.TrimSpace(in.Gender) == "" {
		respondError(w, http.StatusBadRequest, "full_name and gender are required")
		return
	}
	if _, err := time.Parse("2006-01-02", in.DOB); err != nil {
		respondError(w, http.StatusBadRequest, "dob must be YYYY-MM-DD")
		return
	}
	p, err := s.Store.CreatePatient(r.Context(), in)
	if err != nil {
		respondStoreError(w, r, err, "patient")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"message":    "Patient created successfully",
		"patient_id": p.ID,
	})
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.Store.ListPatients(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "patients")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"patients": nonNil(patients)})
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.Store.GetPatient(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err, "patient")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handlePatientQueries(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.Store.GetPatient(r.Context(), id); err != nil {
		respondStoreError(w, r, err, "patient")
		return
	}
	queries, err := s.Store.ListQueries(r.Context(), db.QueryFilter{PatientID: strconv.FormatInt(id, 10)})
	if err != nil {
		respondStoreError(w, r, err, "queries")
		return
	}
	respondJSON(w, http.StatusOK, nonNil(queries))
}

func (s *Server) handleCreateClinician(w http.ResponseWriter, r *http.Request) {
	var c pkg.Clinician
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(c.FullName) == "" || strings.TrimSpace(c.Email) == "" || strings.TrimSpace(c.MedicalRegNumber) == "" {
		respondError(w, http.StatusBadRequest, "full_name, email and medical_reg_number are required")
		return
	}
	out, err := s.Store.CreateClinician(r.Context(), c)
	if err != nil {
		respondStoreError(w, r, err, "clinician")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"message":      "Clinician created successfully",
		"clinician_id": out.ID,
	})
}

func (s *Server) handleListClinicians(w http.ResponseWriter, r *http.Request) {
	clinicians, err := s.Store.ListClinicians(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "clinicians")
		return
	}
	respondJSON(w, http.StatusOK, nonNil(clinicians))
}

func (s *Server) handleGetClinician(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.Store.GetClinician(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err, "clinician")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleClinicianQueries(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.Store.GetClinician(r.Context(), id); err != nil {
		respondStoreError(w, r, err, "clinician")
		return
	}
	queries, err := s.Store.ListQueries(r.Context(), db.QueryFilter{ClinicianID: id})
	if err != nil {
		respondStoreError(w, r, err, "queries")
		return
	}
	respondJSON(w, http.StatusOK, nonNil(queries))
}
