package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// AISettings holds tunables for the AI microservice boundary that can change
// without a restart (prompt temperature, retrieval depth, plan preferences).
type AISettings struct {
	Model            string         `json:"model"`
	Temperature      float64        `json:"temperature"`
	RetrievalDepth   int            `json:"retrieval_depth"`
	PlanPreferences  map[string]any `json:"plan_preferences"`
	SuggestionsLimit int            `json:"suggestions_limit"`
}

// DefaultAISettings returns the settings used when no settings file exists.
func DefaultAISettings() AISettings {
	return AISettings{
		Model:            "gemini-2.5-flash",
		Temperature:      0.1,
		RetrievalDepth:   10,
		PlanPreferences:  map[string]any{},
		SuggestionsLimit: 5,
	}
}

// AISettingsStore is a hot-reloadable view over the AI settings file.
type AISettingsStore struct {
	mu       sync.RWMutex
	settings AISettings
	path     string
}

// NewAISettingsStore loads settings from path (falling back to defaults) and,
// when path is non-empty, watches it for changes.
func NewAISettingsStore(path string) *AISettingsStore {
	s := &AISettingsStore{settings: DefaultAISettings(), path: path}
	if path == "" {
		return s
	}

	if err := s.reload(); err != nil {
		log.Printf("⚠️  Failed to load AI settings from %s: %v (using defaults)", path, err)
	}
	go s.watch()
	return s
}

// Get returns a snapshot of the current settings.
func (s *AISettingsStore) Get() AISettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *AISettingsStore) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	settings := DefaultAISettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return nil
}

// watch hot-reloads the settings file on change. Watching the directory is
// more reliable than watching the file directly (editors replace files).
func (s *AISettingsStore) watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create AI settings watcher: %v", err)
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(s.path)
	if err != nil {
		log.Printf("⚠️  Failed to resolve AI settings path %s: %v", s.path, err)
		return
	}

	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  Failed to watch %s: %v", dir, err)
		return
	}

	log.Printf("👁️  Watching %s for changes (hot-reload enabled)", s.path)

	var debounceTimer *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				// Debounce: editors fire multiple events per save
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(300*time.Millisecond, func() {
					if err := s.reload(); err != nil {
						log.Printf("⚠️  AI settings reload failed: %v", err)
					} else {
						log.Printf("🔄 AI settings reloaded from %s", s.path)
					}
				})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  AI settings watcher error: %v", err)
		}
	}
}
