package timeline

import "clipcut/model"

// ActiveSet 某一时刻应当可见/可听的剪辑集合。
// 三个分组都按轨道声明顺序排列，同一轨道内按剪辑加入顺序。
type ActiveSet struct {
	Visuals []model.Clip `json:"visuals"` // VIDEO/IMAGE
	Texts   []model.Clip `json:"texts"`   // TEXT 叠加层，各自独占一层
	Audios  []model.Clip `json:"audios"`  // AUDIO，无视觉表现
}

// Primary 默认合成策略下的主背景剪辑：轨道顺序中遇到的第一个视觉剪辑。
// 完整集合保留在 Visuals 中，下游可以换用自己的叠加策略。
func (s ActiveSet) Primary() (model.Clip, bool) {
	if len(s.Visuals) == 0 {
		return model.Clip{}, false
	}
	return s.Visuals[0], true
}

// Empty 是否没有任何活动剪辑
func (s ActiveSet) Empty() bool {
	return len(s.Visuals) == 0 && len(s.Texts) == 0 && len(s.Audios) == 0
}

// IsActive 判断剪辑在时刻 t 是否活动。
// 区间是半开的 [start, start+duration)：最后可见的瞬间严格早于结束点，
// 避免剪辑收尾处与后继剪辑同帧闪烁。
func IsActive(c model.Clip, t float64) bool {
	return t >= c.StartTime && t < c.StartTime+c.Duration
}

// MediaTime 把时间轴时刻映射到剪辑源媒体的本地时刻，考虑入点修剪。
func MediaTime(c model.Clip, t float64) float64 {
	return t - c.StartTime + c.Offset
}

// Resolve 计算时刻 t 的活动剪辑集合。纯函数，不修改入参。
// 隐藏轨道上的剪辑不进入视觉/文字分组，静音轨道上的剪辑不进入音频分组。
func Resolve(tracks []model.Track, clips []model.Clip, t float64) ActiveSet {
	var set ActiveSet

	// 按轨道声明顺序遍历，保证 Primary 的先到先得语义
	for _, track := range tracks {
		for _, clip := range clips {
			if clip.TrackID != track.ID || !IsActive(clip, t) {
				continue
			}

			switch {
			case clip.IsVisual():
				if !track.IsHidden {
					set.Visuals = append(set.Visuals, clip)
				}
			case clip.Type == model.ClipTypeText:
				if !track.IsHidden {
					set.Texts = append(set.Texts, clip)
				}
			case clip.Type == model.ClipTypeAudio:
				if !track.IsMuted {
					set.Audios = append(set.Audios, clip)
				}
			}
		}
	}

	return set
}
