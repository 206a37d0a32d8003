package scout

import "github.com/kailas-cloud/scout/internal/domain"

func domainPrompt(system, user string) domain.Prompt {
	return domain.Prompt{System: system, User: user}
}
