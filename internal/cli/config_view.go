package cli

import (
	"fmt"

	"github.com/dyike/EquityGo/config"
)

func showConfig(cfg *config.Config) {
	fmt.Println(statusStyle.Render("Effective configuration:"))
	fmt.Printf("  llm_provider:     %s\n", cfg.LLMProvider)
	fmt.Printf("  model:            %s\n", cfg.LLMModel())
	fmt.Printf("  max_tokens:       %d\n", cfg.MaxTokens)
	fmt.Printf("  max_iterations:   %d\n", cfg.MaxIterations)
	fmt.Printf("  session_timeout:  %s\n", cfg.SessionTimeout)
	fmt.Printf("  cache_enabled:    %t\n", cfg.CacheEnabled)
	fmt.Printf("  log_dir:          %s\n", cfg.LogDir)
	fmt.Printf("  reports_dir:      %s\n", cfg.ReportsDir)
	fmt.Printf("  data_dir:         %s\n", cfg.DataDir)
	fmt.Printf("  fmp_api_key:      %s\n", maskKey(cfg.FMPAPIKey))
	fmt.Printf("  tavily_api_key:   %s\n", maskKey(cfg.TavilyAPIKey))
	fmt.Printf("  llm_api_key:      %s\n", maskKey(cfg.LLMAPIKey()))
	if cfg.EinoDebugEnabled {
		fmt.Printf("  eino_debug_port:  %d\n", cfg.EinoDebugPort)
	}
}

func validateConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		printError(err.Error())
		return err
	}

	ok := true
	check := func(name, value string) {
		if value == "" {
			printError(name + " is not set")
			ok = false
			return
		}
		fmt.Println(successStyle.Render("✓ " + name + " is set"))
	}
	check("FMP_API_KEY", cfg.FMPAPIKey)
	check(fmt.Sprintf("%s API key", cfg.LLMProvider), cfg.LLMAPIKey())
	if cfg.TavilyAPIKey == "" {
		printStatus("TAVILY_API_KEY is not set (news pipeline will be unavailable)")
	} else {
		fmt.Println(successStyle.Render("✓ TAVILY_API_KEY is set"))
	}

	if !ok {
		return fmt.Errorf("configuration incomplete")
	}
	printStatus("Configuration is valid.")
	return nil
}

// maskKey hides a credential's value while showing whether it is set.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 6 {
		return "******"
	}
	return key[:3] + "..." + key[len(key)-2:]
}
