package util

import "github.com/inkgraph/backend/pkg/logger"

// Strategy is one candidate producer in a fallback chain.
type Strategy[T any] struct {
	Name string
	Run  func() (T, error)
}

// FirstOf runs strategies in order and returns the first result that is
// neither an error nor empty according to isEmpty, together with the name of
// the strategy that produced it. If every strategy fails or comes back empty,
// the zero value and an empty name are returned.
//
// This is the shared control-flow primitive behind OCR engine fallback,
// concept ranking and graph construction.
func FirstOf[T any](isEmpty func(T) bool, strategies ...Strategy[T]) (T, string) {
	var zero T
	for _, s := range strategies {
		result, err := s.Run()
		if err != nil {
			logger.Debug("Fallback strategy failed", "strategy", s.Name, "err", err)
			continue
		}
		if isEmpty(result) {
			continue
		}
		return result, s.Name
	}
	return zero, ""
}
