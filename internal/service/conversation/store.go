package conversation

import (
	"LLMRelay/internal/ai"
	"slices"
	"sync"
)

// State состояние одного треда: активный бэкенд и история под ним.
type State struct {
	Backend  string
	Messages []ai.Message
}

// Exists сообщает, был ли у треда хоть один обмен.
func (s State) Exists() bool { return len(s.Messages) > 0 }

func (s State) clone() State {
	return State{Backend: s.Backend, Messages: slices.Clone(s.Messages)}
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

// Store хранит состояния тредов в памяти процесса. Ничего не удаляет.
type Store struct {
	mu     sync.Mutex
	states map[string]State
	locks  map[string]*threadLock
}

func NewStore() *Store {
	return &Store{
		states: make(map[string]State),
		locks:  make(map[string]*threadLock),
	}
}

// GetOrCreate возвращает копию состояния треда; для нового треда — пустое состояние.
func (s *Store) GetOrCreate(threadID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[threadID]
	if !ok {
		st = State{}
		s.states[threadID] = st
	}
	return st.clone()
}

// Put сохраняет копию состояния.
func (s *Store) Put(threadID string, st State) {
	s.mu.Lock()
	s.states[threadID] = st.clone()
	s.mu.Unlock()
}

// Len количество известных тредов.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Lock захватывает мьютекс треда и возвращает функцию освобождения.
// Разные треды друг друга не блокируют.
func (s *Store) Lock(threadID string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[threadID]
	if !ok {
		l = &threadLock{}
		s.locks[threadID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			s.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, threadID)
			}
			s.mu.Unlock()
		})
	}
}
