package cas

import (
	"github.com/rs/zerolog/log"

	"github.com/marrow-lang/marrow/vm"
)

// CompileCached returns the program for src, compiling and storing it on
// a miss. The bool reports a cache hit.
func CompileCached(store CAS, name, src string) (*vm.Program, bool, error) {
	key := HashBytes([]byte(src))
	if target, ok := store.GetRef(key); ok {
		prog, err := load(store, target)
		if err == nil {
			log.Debug().Str("name", name).Str("source", key.String()).Str("entry", target.String()).Msg("cache hit")
			return prog, true, nil
		}
		log.Debug().Err(err).Str("name", name).Msg("cache entry unusable, recompiling")
	}

	prog, err := vm.CompileSource(name, src)
	if err != nil {
		return nil, false, err
	}
	h, err := store.Put(NewProgramEntry(name, key, prog))
	if err != nil {
		return nil, false, err
	}
	if err := store.SetRef(key, h); err != nil {
		return nil, false, err
	}
	log.Debug().Str("name", name).Str("source", key.String()).Str("entry", h.String()).Int("instructions", len(prog.Code)).Msg("cache miss, stored")
	return prog, false, nil
}

func load(store CAS, h Hash) (*vm.Program, error) {
	entry, err := Retrieve[*ProgramEntry](store, h)
	if err != nil {
		return nil, err
	}
	return entry.Program()
}
