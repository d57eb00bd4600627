package service

import (
	"time"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

// Summary is what the dashboard shows above the record table.
type Summary struct {
	Total         int            `json:"total"`
	Entries       int            `json:"entries"`
	Exits         int            `json:"exits"`
	WithPhoto     int            `json:"with_photo"`
	MaterialExits int            `json:"material_exits"`
	First         *time.Time     `json:"first,omitempty"`
	Last          *time.Time     `json:"last,omitempty"`
	ByOperator    map[string]int `json:"by_operator"`
}

func Summarize(records []types.AccessRecord) Summary {
	s := Summary{Total: len(records), ByOperator: map[string]int{}}
	for _, r := range records {
		switch r.Type {
		case types.RecordEntry:
			s.Entries++
		case types.RecordExit:
			s.Exits++
		}
		if r.HasPhoto() {
			s.WithPhoto++
		}
		if r.MaterialExit {
			s.MaterialExits++
		}
		s.ByOperator[r.RegisteredBy]++

		if s.First == nil || r.Timestamp.Before(*s.First) {
			first := r.Timestamp
			s.First = &first
		}
		if s.Last == nil || r.Timestamp.After(*s.Last) {
			last := r.Timestamp
			s.Last = &last
		}
	}
	return s
}
