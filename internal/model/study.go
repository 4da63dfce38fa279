package model

import "time"

const MaxStudyNameLength = 50

// SavedStudy is one named snapshot kept by the study archive.
type SavedStudy struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Snapshot  EstimateInput `json:"data"`
	CreatedAt time.Time     `json:"createdAt"`
}

func (s SavedStudy) Clone() SavedStudy {
	out := s
	out.Snapshot = s.Snapshot.Clone()
	return out
}

// SaveStudyRequest representa a requisicao para salvar um estudo
type SaveStudyRequest struct {
	Name string        `json:"name"`
	Data EstimateInput `json:"data"`
}

type StudiesResponse struct {
	Studies []SavedStudy `json:"studies"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}
