// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

//
// character helper functions
//

func alpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func decimal(c byte) bool {
	return (c >= '0' && c <= '9')
}

func hexadecimal(c byte) bool {
	return decimal(c) || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func labelStartChar(c byte) bool {
	return alpha(c)
}

func labelChar(c byte) bool {
	return alpha(c) || decimal(c) || c == '_'
}

func commandChar(c byte) bool {
	return alpha(c) || decimal(c)
}

func all(s string, fn func(c byte) bool) bool {
	for i := 0; i < len(s); i++ {
		if !fn(s[i]) {
			return false
		}
	}
	return true
}
