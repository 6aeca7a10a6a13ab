package main

import (
	"github.com/stellarlinkco/sandbench/internal/llm"
)

var defaultProviderFromConfig = llm.DefaultProviderFromConfig
