package models

// Label 一条标注文字及其实测值
type Label struct {
	Text        string  `json:"text"`
	Measurement float64 `json:"measurement"`
}

// LabelSet 按首次出现顺序保存的标注文字集合，文字唯一。
// 重复写入同一文字时保留原位置，实测值取最后一次
type LabelSet struct {
	items []Label
	index map[string]int
}

func NewLabelSet() *LabelSet {
	return &LabelSet{index: make(map[string]int)}
}

func (s *LabelSet) Set(text string, measurement float64) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[text]; ok {
		s.items[i].Measurement = measurement
		return
	}
	s.index[text] = len(s.items)
	s.items = append(s.items, Label{Text: text, Measurement: measurement})
}

func (s *LabelSet) Get(text string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.index[text]
	if !ok {
		return 0, false
	}
	return s.items[i].Measurement, true
}

func (s *LabelSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// All 按插入顺序返回副本
func (s *LabelSet) All() []Label {
	if s == nil {
		return nil
	}
	return append([]Label(nil), s.items...)
}

// First 第一个标注，集合为空时 ok 为 false
func (s *LabelSet) First() (Label, bool) {
	if s.Len() == 0 {
		return Label{}, false
	}
	return s.items[0], true
}

// At 第 i 个标注
func (s *LabelSet) At(i int) (Label, bool) {
	if i < 0 || i >= s.Len() {
		return Label{}, false
	}
	return s.items[i], true
}

// Texts 只取文字
func (s *LabelSet) Texts() []string {
	out := make([]string, 0, s.Len())
	for _, l := range s.All() {
		out = append(out, l.Text)
	}
	return out
}
