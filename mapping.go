package mapbatch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Strand is the reference strand an alignment maps to.
type Strand int8

const (
	Forward Strand = 1
	Reverse Strand = -1
)

func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}
	return "+"
}

// CigarOp is one CIGAR operation: a length and a numeric operation code
// (0=M, 1=I, 2=D, 3=N, 4=S, 5=H, 6=P, 7='=', 8=X).
type CigarOp struct {
	Len int
	Op  uint8
}

var cigarOpChars = [...]string{"M", "I", "D", "N", "S", "H", "P", "=", "X"}

// Mapping is one alignment of a query sequence against the reference.
type Mapping struct {
	QueryStart  int
	QueryEnd    int
	Strand      Strand
	TargetName  string
	TargetLen   int
	TargetStart int
	TargetEnd   int
	MatchLen    int
	BlockLen    int
	MapQ        int
	IsPrimary   bool
	Cigar       []CigarOp
	NM          int
	MD          string
	CS          string
}

// CigarString renders the CIGAR operations as a string, e.g. "32M1D8M".
func (m *Mapping) CigarString() (string, error) {
	var err error
	parts := lo.FilterMap(m.Cigar, func(c CigarOp, _ int) (string, bool) {
		if err != nil {
			return "", false
		}
		if int(c.Op) >= len(cigarOpChars) {
			err = fmt.Errorf("invalid CIGAR code %d", c.Op)
			return "", false
		}
		return strconv.Itoa(c.Len) + cigarOpChars[c.Op], true
	})
	if err != nil {
		return "", err
	}
	return strings.Join(parts, ""), nil
}

// String renders the mapping as a PAF-style record. As in the PAF spec, the
// query name and query length columns are left to the caller.
func (m *Mapping) String() string {
	tp := "tp:A:S"
	if m.IsPrimary {
		tp = "tp:A:P"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d\t%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s",
		m.QueryStart, m.QueryEnd, m.Strand,
		m.TargetName, m.TargetLen, m.TargetStart, m.TargetEnd,
		m.MatchLen, m.BlockLen, m.MapQ, tp,
	)
	if cigar, err := m.CigarString(); err == nil && cigar != "" {
		fmt.Fprintf(&b, "\tcg:Z:%s", cigar)
	}
	return b.String()
}

// PrimaryOnly filters mappings down to primary alignments.
func PrimaryOnly(ms []Mapping) []Mapping {
	return lo.Filter(ms, func(m Mapping, _ int) bool { return m.IsPrimary })
}
