package profile

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// ErrProfileNotFound is returned when a student id does not resolve.
var ErrProfileNotFound = fmt.Errorf("student profile not found")

// InMemoryStore is a process-local profile store protected by an RWMutex.
// Reads hand out clones, so callers never observe concurrent updates through
// a shared pointer.
type InMemoryStore struct {
	mu          sync.RWMutex
	profiles    map[string]*StudentProfile
	performance map[string]map[string]PerformanceRecord // studentID -> conceptID -> record
	now         func() time.Time
}

// InMemoryStoreOptions configures an InMemoryStore.
type InMemoryStoreOptions struct {
	// Clock overrides the time source, primarily for activity-window tests.
	Clock func() time.Time
}

// NewInMemoryStore constructs an empty in-memory profile store.
func NewInMemoryStore(optFns ...func(o *InMemoryStoreOptions)) *InMemoryStore {
	opts := InMemoryStoreOptions{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{
		profiles:    make(map[string]*StudentProfile),
		performance: make(map[string]map[string]PerformanceRecord),
		now:         opts.Clock,
	}
}

// Save inserts or replaces a profile. The stored copy is detached from the
// caller's value.
func (s *InMemoryStore) Save(p *StudentProfile) error {
	if p == nil || p.StudentID == "" {
		return fmt.Errorf("profile must have a student id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.StudentID] = p.Clone()
	return nil
}

// Get returns a snapshot of the profile for the student.
func (s *InMemoryStore) Get(studentID string) (*StudentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[studentID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p.Clone(), nil
}

// Update applies fn to the stored profile and bumps its LastUpdated
// timestamp as one atomic unit, returning a snapshot of the result.
func (s *InMemoryStore) Update(studentID string, fn func(p *StudentProfile)) (*StudentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[studentID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	fn(p)
	p.LastUpdated = s.now()
	return p.Clone(), nil
}

// Touch marks the student active now.
func (s *InMemoryStore) Touch(studentID string) error {
	_, err := s.Update(studentID, func(p *StudentProfile) {
		p.LastActive = s.now()
	})
	return err
}

// Delete removes the profile and its performance records, reporting whether
// the profile existed.
func (s *InMemoryStore) Delete(studentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[studentID]; !ok {
		return false
	}
	delete(s.profiles, studentID)
	delete(s.performance, studentID)
	return true
}

// List returns snapshots of all profiles. With activeOnly set, only students
// active within the given window are included.
func (s *InMemoryStore) List(activeOnly bool, window time.Duration) []*StudentProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-window)

	result := make([]*StudentProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if activeOnly && !p.ActiveSince(cutoff) {
			continue
		}
		result = append(result, p.Clone())
	}
	return result
}

// RecordPerformance merges one graded attempt into the student's record for
// the concept and refreshes the profile's performance summary.
func (s *InMemoryStore) RecordPerformance(studentID, conceptID string, correct bool, masteryLevel float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[studentID]
	if !ok {
		return ErrProfileNotFound
	}

	if s.performance[studentID] == nil {
		s.performance[studentID] = make(map[string]PerformanceRecord)
	}
	rec := s.performance[studentID][conceptID]
	firstAttempt := rec.Attempts == 0
	rec.Attempts++
	if correct {
		rec.Correct++
	}
	rec.MasteryLevel = masteryLevel
	rec.LastUpdated = s.now()
	s.performance[studentID][conceptID] = rec

	if firstAttempt {
		p.ConceptsAttempted++
	}
	if masteryLevel >= p.Goals.TargetMasteryLevel {
		p.AddStrengthArea(conceptID)
	}
	p.ConceptsMastered = s.masteredCountLocked(studentID, p.Goals.TargetMasteryLevel)
	p.AverageAccuracy = s.averageAccuracyLocked(studentID)
	p.LastActive = s.now()
	p.LastUpdated = s.now()
	return nil
}

// Performance returns the record for one concept.
func (s *InMemoryStore) Performance(studentID, conceptID string) (PerformanceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.performance[studentID][conceptID]
	return rec, ok
}

// PerformanceByStudent returns a copy of all records for the student.
func (s *InMemoryStore) PerformanceByStudent(studentID string) map[string]PerformanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.performance[studentID]
	result := make(map[string]PerformanceRecord, len(records))
	for concept, rec := range records {
		result[concept] = rec
	}
	return result
}

func (s *InMemoryStore) masteredCountLocked(studentID string, target float64) int {
	count := 0
	for _, rec := range s.performance[studentID] {
		if rec.MasteryLevel >= target {
			count++
		}
	}
	return count
}

func (s *InMemoryStore) averageAccuracyLocked(studentID string) float64 {
	records := s.performance[studentID]
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, rec := range records {
		sum += rec.Accuracy()
	}
	return sum / float64(len(records))
}

// exportPayload is the JSON shape produced by ExportJSON and consumed by
// ImportJSON.
type exportPayload struct {
	StudentProfiles map[string]*StudentProfile              `json:"student_profiles"`
	PerformanceData map[string]map[string]PerformanceRecord `json:"performance_data"`
	ExportedAt      time.Time                               `json:"exported_at"`
}

// ExportJSON serializes all profiles and performance records.
func (s *InMemoryStore) ExportJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload := exportPayload{
		StudentProfiles: make(map[string]*StudentProfile, len(s.profiles)),
		PerformanceData: make(map[string]map[string]PerformanceRecord, len(s.performance)),
		ExportedAt:      s.now(),
	}
	for id, p := range s.profiles {
		payload.StudentProfiles[id] = p
	}
	for id, records := range s.performance {
		copied := make(map[string]PerformanceRecord, len(records))
		for concept, rec := range records {
			copied[concept] = rec
		}
		payload.PerformanceData[id] = copied
	}

	return json.MarshalIndent(payload, "", "  ")
}

// ImportJSON merges previously exported data into the store. Existing entries
// with the same student id are replaced.
func (s *InMemoryStore) ImportJSON(data []byte) error {
	var payload exportPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("import profiles: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range payload.StudentProfiles {
		if p == nil || p.StudentID == "" {
			continue
		}
		s.profiles[id] = p.Clone()
	}
	for id, records := range payload.PerformanceData {
		if s.performance[id] == nil {
			s.performance[id] = make(map[string]PerformanceRecord, len(records))
		}
		for concept, rec := range records {
			s.performance[id][concept] = rec
		}
	}
	return nil
}

// Stats reports store-level counters for introspection.
func (s *InMemoryStore) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, records := range s.performance {
		total += len(records)
	}
	return map[string]any{
		"student_profiles_count":    len(s.profiles),
		"performance_data_students": len(s.performance),
		"total_performance_records": total,
	}
}
