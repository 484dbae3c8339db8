package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex preq_01HZY5XKQ4N0W0Y9S2J6R8T3VB
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateShortIDWithPrefix returns a short human readable reference.
// Total length is capped at 12 characters, e.g. `PR-XYZ12A8Q`.
func GenerateShortIDWithPrefix(prefix string) string {
	once.Do(initializeSID)

	id, err := sidGenerator.Generate()
	if err != nil {
		return ""
	}
	id = strings.ReplaceAll(id, "-", "")

	availableLen := 12 - len(prefix)
	if availableLen <= 0 {
		return ""
	}

	if len(id) > availableLen {
		id = id[:availableLen]
	}

	return strings.ToUpper(fmt.Sprintf("%s%s", prefix, id))
}

const (
	UUID_PREFIX_PLAN            = "plan"
	UUID_PREFIX_SUBSCRIPTION    = "subs"
	UUID_PREFIX_INVOICE         = "inv"
	UUID_PREFIX_USAGE_THRESHOLD = "uth"
	UUID_PREFIX_DUNNING         = "dun"
	UUID_PREFIX_PAYMENT_REQUEST = "preq"
	UUID_PREFIX_EVENT           = "event"
)

const (
	SHORT_ID_PREFIX_PAYMENT_REQUEST = "PR-"
)
