package parser

import "regexp"

// jsonBlockRegex は ```json ... ``` 形式のコードブロックの中身をキャプチャします。
var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")
