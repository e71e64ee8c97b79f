package eventbus

import (
	"fmt"
	"path"

	"github.com/matzehuels/flowmodel/pkg/errors"
)

// Check validates the payload of a documented event.
type Check func(payload any) error

type contract struct {
	pattern string
	check   Check
}

// Contract binds a payload check to an event name or pattern. Events with no
// matching contract stay unchecked so extensions can introduce new names.
func (b *Bus) Contract(pattern string, check Check) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contracts = append(b.contracts, contract{pattern: pattern, check: check})
}

// Expect registers a contract requiring payloads of events matching pattern
// to have dynamic type T.
func Expect[T any](b *Bus, pattern string) {
	b.Contract(pattern, func(payload any) error {
		if _, ok := payload.(T); !ok {
			var want T
			return fmt.Errorf("payload is %T, want %T", payload, want)
		}
		return nil
	})
}

func (b *Bus) checkContract(name string, payload any) error {
	b.mu.RLock()
	contracts := b.contracts
	b.mu.RUnlock()

	for _, c := range contracts {
		if ok, _ := path.Match(c.pattern, name); !ok {
			continue
		}
		if err := c.check(payload); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPayload, err, "event %s", name)
		}
	}
	return nil
}
