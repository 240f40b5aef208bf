package scoring

import (
	"context"
	"math"
	"regexp"
	"strings"
)

const maxNgramOrder = 4

// BLEU computes corpus BLEU on the 0-100 scale with 13a tokenization, a
// single reference per hypothesis and exponential smoothing. Items hold
// sentence-level BLEU with effective order.
type BLEU struct{}

func (BLEU) Name() string { return "bleu" }

func (BLEU) Score(ctx context.Context, hyps, refs []string) (*Result, error) {
	if err := checkLengths(hyps, refs); err != nil {
		return nil, err
	}

	var corpus bleuStats
	items := make([]float64, len(hyps))
	for i := range hyps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st := sentenceStats(tokenize13a(hyps[i]), tokenize13a(refs[i]))
		items[i] = st.score(true)
		corpus.add(st)
	}

	return &Result{Metric: "bleu", Score: corpus.score(false), Items: items}, nil
}

type bleuStats struct {
	correct [maxNgramOrder]int
	total   [maxNgramOrder]int
	sysLen  int
	refLen  int
}

func (s *bleuStats) add(o bleuStats) {
	for n := 0; n < maxNgramOrder; n++ {
		s.correct[n] += o.correct[n]
		s.total[n] += o.total[n]
	}
	s.sysLen += o.sysLen
	s.refLen += o.refLen
}

func sentenceStats(hyp, ref []string) bleuStats {
	st := bleuStats{sysLen: len(hyp), refLen: len(ref)}
	for n := 1; n <= maxNgramOrder; n++ {
		hypCounts := ngramCounts(hyp, n)
		refCounts := ngramCounts(ref, n)
		for g, c := range hypCounts {
			if rc := refCounts[g]; rc < c {
				st.correct[n-1] += rc
			} else {
				st.correct[n-1] += c
			}
		}
		if len(hyp) >= n {
			st.total[n-1] = len(hyp) - n + 1
		}
	}
	return st
}

func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

// score follows sacrebleu's exp smoothing: each zero-match order gets
// precision 100 / (2^k * total) for the k-th such order. Without a single
// matching n-gram the score is 0.
func (s bleuStats) score(effectiveOrder bool) float64 {
	matched := false
	for n := 0; n < maxNgramOrder; n++ {
		if s.correct[n] > 0 {
			matched = true
			break
		}
	}
	if !matched {
		return 0
	}

	var precisions [maxNgramOrder]float64
	order := maxNgramOrder
	smooth := 1.0

	if effectiveOrder {
		order = 1
	}
	for n := 0; n < maxNgramOrder; n++ {
		if s.total[n] == 0 {
			break
		}
		if effectiveOrder {
			order = n + 1
		}
		if s.correct[n] == 0 {
			smooth *= 2
			precisions[n] = 100 / (smooth * float64(s.total[n]))
		} else {
			precisions[n] = 100 * float64(s.correct[n]) / float64(s.total[n])
		}
	}

	bp := 1.0
	if s.sysLen < s.refLen {
		if s.sysLen == 0 {
			return 0
		}
		bp = math.Exp(1 - float64(s.refLen)/float64(s.sysLen))
	}

	var logSum float64
	for n := 0; n < order; n++ {
		if precisions[n] == 0 {
			return 0
		}
		logSum += math.Log(precisions[n])
	}
	return bp * math.Exp(logSum/float64(order))
}

var tokenizeRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	// punctuation and symbols
	{regexp.MustCompile(`([\{-~\[-\x60 -&\(-\+:-@/])`), " $1 "},
	// period and comma unless preceded by a digit
	{regexp.MustCompile(`([^0-9])([\.,])`), "$1 $2 "},
	// period and comma unless followed by a digit
	{regexp.MustCompile(`([\.,])([^0-9])`), " $1 $2"},
	// dash when preceded by a digit
	{regexp.MustCompile(`([0-9])(-)`), "$1 $2 "},
}

var entityReplacer = strings.NewReplacer("&quot;", `"`, "&amp;", "&", "&lt;", "<", "&gt;", ">")

// tokenize13a mirrors the mteval-v13a tokenizer used as the BLEU default.
func tokenize13a(line string) []string {
	line = strings.ReplaceAll(line, "<skipped>", "")
	line = strings.ReplaceAll(line, "-\n", "")
	line = strings.ReplaceAll(line, "\n", " ")
	if strings.Contains(line, "&") {
		line = entityReplacer.Replace(line)
	}

	line = " " + line + " "
	for _, r := range tokenizeRules {
		line = r.re.ReplaceAllString(line, r.repl)
	}
	return strings.Fields(line)
}
