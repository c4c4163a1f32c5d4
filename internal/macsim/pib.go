package macsim

import (
	"errors"
	"fmt"

	"github.com/nghiaquy1991/PAN/pkg/mac"
)

// PIB errors.
var (
	ErrAttributeNotSet = errors.New("macsim: attribute not set")
	ErrAttributeType   = errors.New("macsim: attribute has another type")
)

func (s *Sim) set(attr mac.Attribute, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pib[attr] = v
	return nil
}

func get[T any](s *Sim, attr mac.Attribute) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	raw, ok := s.pib[attr]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrAttributeNotSet, attr)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", ErrAttributeType, attr, raw)
	}
	return v, nil
}

func (s *Sim) SetBool(attr mac.Attribute, v bool) error     { return s.set(attr, v) }
func (s *Sim) SetUint8(attr mac.Attribute, v uint8) error   { return s.set(attr, v) }
func (s *Sim) SetUint16(attr mac.Attribute, v uint16) error { return s.set(attr, v) }
func (s *Sim) SetUint32(attr mac.Attribute, v uint32) error { return s.set(attr, v) }

func (s *Sim) SetArray(attr mac.Attribute, v []byte) error {
	return s.set(attr, append([]byte(nil), v...))
}

func (s *Sim) GetBool(attr mac.Attribute) (bool, error)     { return get[bool](s, attr) }
func (s *Sim) GetUint8(attr mac.Attribute) (uint8, error)   { return get[uint8](s, attr) }
func (s *Sim) GetUint16(attr mac.Attribute) (uint16, error) { return get[uint16](s, attr) }
func (s *Sim) GetUint32(attr mac.Attribute) (uint32, error) { return get[uint32](s, attr) }

func (s *Sim) GetArray(attr mac.Attribute) ([]byte, error) {
	v, err := get[[]byte](s, attr)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), v...), nil
}
