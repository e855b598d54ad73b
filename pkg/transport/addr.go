package transport

import (
	"net"
	"slices"
	"strconv"

	"github.com/aretw0/conshell/pkg/domain"
)

func splitAddr(addr net.Addr) (string, int, bool) {
	if addr == nil {
		return "", 0, false
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "", 0, false
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return "", 0, false
	}
	return host, p, true
}

func sortedIDs[V any](m map[domain.ConnID]V) []domain.ConnID {
	ids := make([]domain.ConnID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
