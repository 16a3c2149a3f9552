package jobs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CacheFile is the JSONL file name used to persist the job log.
const CacheFile = "jobs.jsonl"

// Store provides thread-safe, chronological storage for Jobs keyed by job key.
type Store struct {
	mu   sync.RWMutex
	jobs []Job
	idx  map[string]int
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{
		idx: make(map[string]int),
	}
}

// Upsert adds or replaces jobs by key and keeps the log ordered by start time.
// Jobs without a key or start are skipped. It returns the number of jobs written.
func (s *Store) Upsert(batch []Job) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	for _, j := range batch {
		if j.Key == "" || j.Start.IsZero() {
			continue
		}
		if i, ok := s.idx[j.Key]; ok {
			s.jobs[i] = j
		} else {
			s.jobs = append(s.jobs, j)
			s.idx[j.Key] = len(s.jobs) - 1
		}
		written++
	}

	if written == 0 {
		return 0
	}

	// Sort by Start and then Key for deterministic ordering
	sort.Slice(s.jobs, func(i, k int) bool {
		if !s.jobs[i].Start.Equal(s.jobs[k].Start) {
			return s.jobs[i].Start.Before(s.jobs[k].Start)
		}
		return s.jobs[i].Key < s.jobs[k].Key
	})
	for i, j := range s.jobs {
		s.idx[j.Key] = i
	}

	return written
}

// Load reads jobs from the JSONL cache file in dir.
func (s *Store) Load(dir string) error {
	path := filepath.Join(dir, CacheFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No cache yet, not an error
		}
		return fmt.Errorf("failed to open job cache: %w", err)
	}
	defer file.Close()

	var loaded []Job
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var j Job
		if err := json.Unmarshal(scanner.Bytes(), &j); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping invalid JSON line in job cache")
			continue
		}
		loaded = append(loaded, j)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading job cache: %w", err)
	}

	log.Info().Str("path", path).Int("count", len(loaded)).Msg("Loaded jobs from cache")
	s.Upsert(loaded)
	return nil
}

// Save persists the job log to the JSONL cache file in dir via an atomic rename.
func (s *Store) Save(dir string) error {
	s.mu.RLock()
	snapshot := make([]Job, len(s.jobs))
	copy(snapshot, s.jobs)
	s.mu.RUnlock()

	if len(snapshot) == 0 {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	path := filepath.Join(dir, CacheFile)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, j := range snapshot {
		if err := encoder.Encode(j); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode job: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	log.Info().Str("path", path).Int("count", len(snapshot)).Msg("Job log saved to cache")
	return nil
}

// Count returns the number of jobs in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// All returns a copy of every job in chronological order.
func (s *Store) All() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// InRange returns the jobs whose [start, end] touches [from, to].
// Jobs without an end are included when they started before to.
// A zero to means open-ended.
func (s *Store) InRange(from, to time.Time) []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Job
	for _, j := range s.jobs {
		if !to.IsZero() && !j.Start.Before(to) {
			continue
		}
		if j.End != nil && j.End.Before(from) {
			continue
		}
		result = append(result, j)
	}
	return result
}

// Get returns the job with the given key.
func (s *Store) Get(key string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.idx[key]
	if !ok {
		return Job{}, false
	}
	return s.jobs[i], true
}
