// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/lalts
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

// 版本信息相关
// 一部分版本信息使用了naza.bininfo
// 另外，我们也在本文件提供另外一些信息

// LaltsVersion 注意，该变量由外部脚本修改维护，不要手动在代码中修改
//
const LaltsVersion = "v0.1.0"

// ConfVersion 配置文件的版本号
//
const ConfVersion = "v0.1.0"

var (
	LaltsLibraryName = "lalts"
	LaltsGithubRepo  = "github.com/q191201771/lalts"

	// LaltsFullInfo e.g. lalts v0.1.0 (github.com/q191201771/lalts)
	LaltsFullInfo = LaltsLibraryName + " " + LaltsVersion + " (" + LaltsGithubRepo + ")"
)
