package domain

// Result はバッチ処理1件分の結果です。Err が nil なら Value が有効です。
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// OK は成功したかどうかを返します。
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Values は成功した結果の値だけを入力順に返します。
func Values[T any](results []Result[T]) []T {
	out := make([]T, 0, len(results))
	for _, r := range results {
		if r.OK() {
			out = append(out, r.Value)
		}
	}
	return out
}

// CountFailures は失敗した件数を返します。
func CountFailures[T any](results []Result[T]) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}
