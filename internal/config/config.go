package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	DebugMode        bool          `env:"DEBUG_MODE"`                      //Режим дебага
	BotName          string        `env:"BOT_NAME"`                        // Имя бота, попадает в подпись ответа и в подсказку команды llms
	Version          string        `env:"BOT_VERSION"`                     // Версия бота для подписи ответа
	Personality      string        `env:"BOT_PERSONALITY"`                 // Системный промпт ("характер"), общий для всех бэкендов
	Signature        bool          `env:"SIGNATURE_ENABLED"`               // Добавлять подпись "(бот vX Source: ...)" к ответам
	UserRoleTag      string        `env:"USER_ROLE_TAG"`                   // Роль пользователя в истории треда
	AssistantRoleTag string        `env:"ASSISTANT_ROLE_TAG"`              // Роль бота в истории треда
	GenerateTimeout  time.Duration `env:"GENERATE_TIMEOUT"`                // Таймаут одного запроса к бэкенду
	MaxMessageLength int           `env:"MAX_MESSAGE_LENGTH"`              // Потолок длины одного сообщения; длиннее — режется на части
	Backends         []string      `env:"LLM_BACKENDS" envSeparator:";"`   // Упорядоченный список бэкендов: name или name=kind; первый — по умолчанию
	AllowedUsers     []string      `env:"ALLOWED_USERS" envSeparator:";"`  // ID пользователей, которым разрешено писать боту; * — всем
	AllowedUsersFile string        `env:"ALLOWED_USERS_FILE"`              // JSON {"имя": "id"}, дополняет ALLOWED_USERS

	Texts BotTexts // Тексты, которые видит пользователь

	OpenAI OpenAIConfig
	Gemini GeminiConfig
	Claude ClaudeConfig

	Slack  SlackConfig
	Twitch TwitchConfig
}

// BotTexts фиксированные ответы бота.
type BotTexts struct {
	Thinking         string `env:"TEXT_THINKING"`          // Временное сообщение "думаю", потом редактируется ответом
	ImagePending     string `env:"TEXT_IMAGE_PENDING"`     // Сообщение о том, что рисуется картинка
	Chunked          string `env:"TEXT_CHUNKED"`           // Индикатор для длинного ответа, который уходит частями
	PermissionDenied string `env:"TEXT_PERMISSION_DENIED"` // Ответ пользователю не из allowlist
	PostFailed       string `env:"TEXT_POST_FAILED"`       // Ответ, если не удалось опубликовать результат
	ListHeader       string `env:"TEXT_LIST_HEADER"`       // Заголовок ответа команды llms
	ListReminder     string `env:"TEXT_LIST_REMINDER"`     // Подсказка в конце ответа команды llms
}

// OpenAIConfig конфигурация бэкенда OpenAI.
type OpenAIConfig struct {
	APIKey     string `env:"OPENAI_API_KEY"`
	BaseURL    string `env:"OPENAI_BASE_URL"`
	ChatModel  string `env:"OPENAI_CHAT_MODEL"`
	ImageModel string `env:"OPENAI_IMAGE_MODEL"` // Модель для инструмента generate_image
}

// GeminiConfig конфигурация бэкенда Gemini.
type GeminiConfig struct {
	APIKey  string `env:"GEMINI_API_KEY"`
	BaseURL string `env:"GEMINI_BASE_URL"`
	Model   string `env:"GEMINI_MODEL"`
}

// ClaudeConfig конфигурация бэкенда Claude.
type ClaudeConfig struct {
	APIKey    string `env:"CLAUDE_API_KEY"`
	BaseURL   string `env:"CLAUDE_BASE_URL"`
	Model     string `env:"CLAUDE_MODEL"`
	MaxTokens int    `env:"CLAUDE_MAX_TOKENS"`
}

// SlackConfig параметры подключения к Slack.
type SlackConfig struct {
	BotToken      string `env:"SLACK_BOT_TOKEN"`
	AppToken      string `env:"SLACK_APP_TOKEN"`      // xapp-токен, нужен только для socket mode
	SigningSecret string `env:"SLACK_SIGNING_SECRET"` // Нужен только для http mode
	Mode          string `env:"SLACK_MODE"`           // socket|http
	BindAddr      string `env:"SLACK_BIND_ADDR"`      // Адрес слушателя Events API в http mode
	Path          string `env:"SLACK_EVENTS_PATH"`
}

// TwitchConfig параметры подключения к Twitch IRC.
type TwitchConfig struct {
	Username string `env:"TWITCH_USERNAME"`    // Имя пользователя Twitch (логин)
	OAuth    string `env:"TWITCH_OAUTH_TOKEN"` // OAuth токен Twitch (может быть без префикса oauth:)
	Channel  string `env:"TWITCH_CHANNEL"`     // Канал Twitch (один), без #
}

// Enabled сообщает, заданы ли параметры Slack.
func (s SlackConfig) Enabled() bool { return strings.TrimSpace(s.BotToken) != "" }

// Enabled сообщает, заданы ли параметры Twitch.
func (t TwitchConfig) Enabled() bool {
	return strings.TrimSpace(t.Username) != "" && strings.TrimSpace(t.OAuth) != "" && strings.TrimSpace(t.Channel) != ""
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode:        false,
		BotName:          "Geppetto",
		Version:          "0.2.0",
		Personality:      "You are Geppetto, a helpful assistant in a team chat. Answer in the language the user writes in.",
		Signature:        true,
		UserRoleTag:      "slack_user",
		AssistantRoleTag: "geppetto",
		GenerateTimeout:  2 * time.Minute,
		MaxMessageLength: 4000,
		Backends:         []string{"OpenAI", "Gemini", "Claude"},
		Texts: BotTexts{
			Thinking:         ":thought_balloon:",
			ImagePending:     ":lower_left_paintbrush: Preparing image, please wait...",
			Chunked:          ":page_facing_up: The answer is long, posting it in parts.",
			PermissionDenied: "The requesting user does not belong to the list of allowed users. Please request access to the administrator.",
			PostFailed:       "I'm sorry, I couldn't post the response. Please try again.",
			ListHeader:       "Here are the available AI models!",
			ListReminder:     "Example: Using 'llm_gemini' at the start of your message to Geppetto switches to gemini model.",
		},
		OpenAI: OpenAIConfig{
			ChatModel:  "gpt-4o",
			ImageModel: "dall-e-3",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		Claude: ClaudeConfig{
			Model:     "claude-3-5-sonnet-latest",
			MaxTokens: 1024,
		},
		Slack: SlackConfig{
			Mode:     "socket",
			BindAddr: "127.0.0.1:3000",
			Path:     "/slack/events",
		},
	}
}

// NewConfig загружает конфигурацию приложения из .env, окружения и os.Args.
func NewConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load — разбор конфигурации с явными аргументами командной строки.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	// Стартуем с дефолтов, затем перекрываем .env/окружением и флагами
	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("relay", flag.ContinueOnError)
	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага")
	fs.StringVar(&cfg.BotName, "bot-name", cfg.BotName, "имя бота")
	fs.StringVar(&cfg.Personality, "personality", cfg.Personality, "системный промпт для всех бэкендов")
	fs.BoolVar(&cfg.Signature, "signature", cfg.Signature, "добавлять подпись бэкенда к ответам")
	fs.DurationVar(&cfg.GenerateTimeout, "generate-timeout", cfg.GenerateTimeout, "таймаут одного запроса к бэкенду, напр. 90s")
	fs.IntVar(&cfg.MaxMessageLength, "max-message-length", cfg.MaxMessageLength, "максимальная длина одного сообщения")
	// Принимаем списки одной строкой, разделённой ';'
	backendsFlag := strings.Join(cfg.Backends, ";")
	fs.StringVar(&backendsFlag, "backends", backendsFlag, "бэкенды в порядке приоритета, разделённые ';' (name или name=kind)")
	allowedFlag := strings.Join(cfg.AllowedUsers, ";")
	fs.StringVar(&allowedFlag, "allowed-users", allowedFlag, "ID разрешённых пользователей через ';', * — все")
	fs.StringVar(&cfg.AllowedUsersFile, "allowed-users-file", cfg.AllowedUsersFile, "JSON-файл с разрешёнными пользователями")
	// Slack
	fs.StringVar(&cfg.Slack.Mode, "slack-mode", cfg.Slack.Mode, "режим Slack: socket|http")
	fs.StringVar(&cfg.Slack.BindAddr, "slack-bind-addr", cfg.Slack.BindAddr, "адрес Events API в режиме http")
	fs.StringVar(&cfg.Slack.Path, "slack-events-path", cfg.Slack.Path, "HTTP путь Events API")
	// Twitch
	fs.StringVar(&cfg.Twitch.Username, "twitch-username", cfg.Twitch.Username, "логин Twitch для подключения к чату")
	fs.StringVar(&cfg.Twitch.OAuth, "twitch-oauth-token", cfg.Twitch.OAuth, "OAuth токен Twitch (может быть без префикса oauth:)")
	fs.StringVar(&cfg.Twitch.Channel, "twitch-channel", cfg.Twitch.Channel, "канал Twitch (без #)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Backends = parseListFlag(backendsFlag, nil)
	cfg.AllowedUsers = parseListFlag(allowedFlag, nil)

	if cfg.AllowedUsersFile != "" {
		ids, err := LoadAllowedUsers(cfg.AllowedUsersFile)
		if err != nil {
			return nil, err
		}
		cfg.AllowedUsers = append(cfg.AllowedUsers, ids...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("config: LLM_BACKENDS is empty")
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("config: MAX_MESSAGE_LENGTH must be positive, got %d", c.MaxMessageLength)
	}
	if c.UserRoleTag == "" || c.AssistantRoleTag == "" || c.UserRoleTag == c.AssistantRoleTag {
		return fmt.Errorf("config: role tags must be distinct and non-empty (%q, %q)", c.UserRoleTag, c.AssistantRoleTag)
	}
	switch strings.ToLower(c.Slack.Mode) {
	case "socket", "http":
	default:
		return fmt.Errorf("config: unknown SLACK_MODE %q", c.Slack.Mode)
	}
	return nil
}

// LoadAllowedUsers читает JSON вида {"Имя": "U123"} и возвращает список ID.
func LoadAllowedUsers(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("allowed users file: %w", err)
	}
	var byName map[string]string
	if err := json.Unmarshal(data, &byName); err != nil {
		return nil, fmt.Errorf("allowed users file %s: %w", path, err)
	}
	ids := make([]string, 0, len(byName))
	for _, id := range byName {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// parseListFlag разбирает значение флага со списком, разделённым ';'
func parseListFlag(v string, def []string) []string {
	// Пустая строка → дефолт
	if v == "" {
		return def
	}
	parts := strings.Split(v, ";")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return def
	}
	return cleaned
}
