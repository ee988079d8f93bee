package engine

import "fmt"

// cardInstance pairs a generated instance id with its catalog card id.
type cardInstance struct {
	InstanceID string
	CardID     string
}

// buildInstances filters the catalog to archive-eligible cards, repeats the
// filtered list (cycling from the start) until it holds at least targetSize
// entries, and truncates to exactly targetSize. Each copy receives a
// distinct instance id of the form "<cardID>#<copy>", so identity and value
// stay separate even though the archive duplicates cards by value.
//
// Returns nil when no card is archive-eligible; the caller gets empty zones
// rather than an infinite cycle.
func buildInstances(cards []HistoricalCard, targetSize int) []cardInstance {
	eligible := make([]HistoricalCard, 0, len(cards))
	for _, c := range cards {
		if c.IsArchive {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 || targetSize <= 0 {
		return nil
	}

	out := make([]cardInstance, 0, targetSize)
	copies := make(map[string]int, len(eligible))
	for len(out) < targetSize {
		for _, c := range eligible {
			if len(out) == targetSize {
				break
			}
			copies[c.ID]++
			out = append(out, cardInstance{
				InstanceID: fmt.Sprintf("%s#%d", c.ID, copies[c.ID]),
				CardID:     c.ID,
			})
		}
	}
	return out
}

// shuffleZone applies a Fisher-Yates shuffle in place using the session's
// RNG state: every permutation of the zone is equally likely.
func (s *Session) shuffleZone(zone []string) {
	for i := len(zone) - 1; i > 0; i-- {
		j := int(s.randN(uint64(i + 1)))
		zone[i], zone[j] = zone[j], zone[i]
	}
}

// takeFront splits the first n entries off a zone. The caller guarantees
// len(zone) >= n.
func takeFront(zone []string, n int) (taken, rest []string) {
	taken = append([]string(nil), zone[:n]...)
	rest = append([]string(nil), zone[n:]...)
	return taken, rest
}

// removeOne deletes the first occurrence of id from zone, preserving order.
// ok is false when id is absent.
func removeOne(zone []string, id string) (out []string, ok bool) {
	for i, v := range zone {
		if v == id {
			out = append(out, zone[:i]...)
			out = append(out, zone[i+1:]...)
			return out, true
		}
	}
	return zone, false
}
