package schedule

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash returns the canonical digest of the hour→status mapping. Labels are
// sorted first so the digest is independent of table or map order. The report
// date, timestamp and anomalies are not part of the digest.
func Hash(s Schedule) string {
	labels := canonicalLabels(s)

	var b strings.Builder
	for _, label := range labels {
		b.WriteString(label)
		b.WriteByte(':')
		b.WriteString(s.StatusOf(label).String())
		b.WriteByte(';')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// canonicalLabels is the sorted union of HourLabels and CellStatus keys.
func canonicalLabels(s Schedule) []string {
	seen := make(map[string]struct{}, len(s.HourLabels))
	labels := make([]string, 0, len(s.HourLabels))
	for _, label := range s.HourLabels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	for label := range s.CellStatus {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
