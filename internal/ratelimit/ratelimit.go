// Package ratelimit implementa un contador de ventana fija en memoria,
// por (operación, identidad). El estado vive lo que vive el proceso: un
// reinicio limpia todos los contadores. El conteo es aproximado bajo
// concurrencia extrema pero nunca pierde updates gracias al mutex único.
package ratelimit

import (
	"sync"
	"time"
)

// AnonymousKey identifica a los callers sin identidad resuelta.
const AnonymousKey = "anonymous"

// window una ventana fija: cuenta y momento de reinicio.
type window struct {
	count int
	reset time.Time
}

// Store contador de ventana fija con crecimiento acotado: barrido periódico de
// ventanas expiradas más un tope duro de claves rastreadas.
type Store struct {
	mu      sync.Mutex
	windows map[string]*window
	maxKeys int
	stopCh  chan struct{}
	now     func() time.Time // inyectable en tests
}

// Option configura el Store.
type Option func(*Store)

// WithMaxKeys fija el tope de ventanas rastreadas (por defecto 10000).
func WithMaxKeys(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxKeys = n
		}
	}
}

// WithClock reemplaza el reloj (solo para tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New construye el store y arranca el barrido periódico de ventanas expiradas.
// Llamar Stop() al apagar.
func New(sweepInterval time.Duration, opts ...Option) *Store {
	s := &Store{
		windows: make(map[string]*window),
		maxKeys: 10000,
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// Stop detiene el goroutine de barrido.
func (s *Store) Stop() {
	close(s.stopCh)
}

// Allow registra una llamada a la operación para la identidad dada y decide si
// pasa. Semántica de ventana fija: la primera llamada (o la primera tras
// expirar la ventana) arranca count=1 y reset=now+window; las siguientes
// incrementan. Una llamada que excedería el límite se rechaza SIN consumir
// cupo, así los rechazos no extienden el bloqueo más allá de la ventana.
// retryAfter solo es válido cuando allowed es false.
func (s *Store) Allow(op, key string, limit int, windowDur time.Duration) (allowed bool, retryAfter time.Duration) {
	if limit <= 0 || windowDur <= 0 {
		return true, 0
	}
	now := s.now()
	k := op + ":" + key

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[k]
	if !ok || now.After(w.reset) {
		if !ok && len(s.windows) >= s.maxKeys {
			s.evictLocked(now)
		}
		s.windows[k] = &window{count: 1, reset: now.Add(windowDur)}
		return true, 0
	}
	if w.count >= limit {
		return false, w.reset.Sub(now)
	}
	w.count++
	return true, 0
}

// evictLocked libera espacio: primero barre ventanas expiradas; si ninguna lo
// estaba, expulsa la ventana con el reset más próximo. Requiere mu tomado.
func (s *Store) evictLocked(now time.Time) {
	var victimKey string
	var victimReset time.Time
	freed := false
	for k, w := range s.windows {
		if now.After(w.reset) {
			delete(s.windows, k)
			freed = true
			continue
		}
		if victimKey == "" || w.reset.Before(victimReset) {
			victimKey = k
			victimReset = w.reset
		}
	}
	if !freed && victimKey != "" {
		delete(s.windows, victimKey)
	}
}

// Len cantidad de ventanas rastreadas (para tests y métricas).
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

func (s *Store) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep elimina todas las ventanas ya expiradas.
func (s *Store) sweep() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, w := range s.windows {
		if now.After(w.reset) {
			delete(s.windows, k)
		}
	}
}
