package services

import "github.com/Gopher0727/Fredagslunchen/internal/utils"

// checkName 去掉首尾空白后校验长度
func checkName(name string, maxLen int) (string, error) {
	name, ok := utils.ValidateName(name, maxLen)
	if ok {
		return name, nil
	}
	if name == "" {
		return "", ErrEmptyName
	}
	return "", ErrNameTooLong
}
