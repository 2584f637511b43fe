package commands

const (
	_etc = `C:\ProgramData\sheets-publish`
	_var = `C:\ProgramData\sheets-publish\var`

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + `\.google\credentials.json`
)
