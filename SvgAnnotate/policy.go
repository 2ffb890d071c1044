package SvgAnnotate

import (
	"fmt"
	"strings"

	"github.com/GrainArc/DxfSvg/models"
)

// Policy 决定每个候选分组拿哪条标注
type Policy int

const (
	// PolicyFirst 所有候选分组都用第一条标注
	PolicyFirst Policy = iota
	// PolicySequential 第 i 个候选分组用第 i 条标注，多出的分组不加注释
	PolicySequential
)

func (p Policy) String() string {
	switch p {
	case PolicySequential:
		return "sequential"
	}
	return "first"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return PolicyFirst, nil
	case "sequential", "seq":
		return PolicySequential, nil
	}
	return PolicyFirst, fmt.Errorf("unknown selection policy %q", s)
}

// pick 第 i 个候选分组（从 0 开始）对应的标注
func (p Policy) pick(labels *models.LabelSet, i int) (models.Label, bool) {
	if p == PolicySequential {
		return labels.At(i)
	}
	return labels.First()
}
