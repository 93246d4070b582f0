package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	ENV                  = "ENV"
	PORT                 = "PORT"
	MONGODB_URI          = "MONGODB_URI"
	MYSQL_URI            = "MYSQL_URI"
	REDIS_URI            = "REDIS_URI"
	CRON_SECRET          = "CRON_SECRET"
	GOOGLE_CLIENT_ID     = "GOOGLE_CLIENT_ID"
	GOOGLE_CLIENT_SECRET = "GOOGLE_CLIENT_SECRET"
	SELLSY_CLIENT_ID     = "SELLSY_CLIENT_ID"
	SELLSY_CLIENT_SECRET = "SELLSY_CLIENT_SECRET"
	AUTH_API_URL         = "AUTH_API_URL"

	ENV_DEVELOPMENT = "development"
	ENV_HOMOLOG     = "homolog"
	ENV_RELEASE     = "production"
)

var allowedKeys = []string{
	ENV, PORT, MONGODB_URI, MYSQL_URI, REDIS_URI, CRON_SECRET,
	GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, SELLSY_CLIENT_ID, SELLSY_CLIENT_SECRET,
	AUTH_API_URL,
}

// Only ENV, PORT and MONGODB_URI are mandatory; the rest configure optional
// integrations and the board cache.
var requiredKeys = []string{ENV, PORT, MONGODB_URI}

var allowedEnvValues = []string{ENV_DEVELOPMENT, ENV_HOMOLOG, ENV_RELEASE}

func LoadEnvVariables() {
	workDir, err := os.Getwd()
	if err != nil {
		panic("[ENV] Erreur lors de la lecture du répertoire de travail: " + err.Error())
	}

	filePath := filepath.Join(workDir, ".env")

	file, err := os.Open(filePath)
	if err != nil {
		panic("[ENV] Impossible d'ouvrir le fichier .env: " + err.Error())
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		panic("[ENV] Impossible de lire le fichier .env: " + err.Error())
	}

	if fileInfo.Size() == 0 {
		panic("[ENV] Le fichier .env est vide")
	}

	foundKeys := make(map[string]bool)
	for _, key := range requiredKeys {
		foundKeys[key] = false
	}

	scanner := bufio.NewScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			panic(fmt.Sprintf("[ENV] Format invalide à la ligne %d: %s", lineNum, line))
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if len(value) > 1 && (strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"")) ||
			(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
			value = value[1 : len(value)-1]
		}

		if key == ENV {
			isValidEnv := slices.Contains(allowedEnvValues, value)

			if !isValidEnv {
				panic(fmt.Sprintf("[ENV] Valeur invalide pour ENV: %s. Valeurs autorisées: %s",
					value, strings.Join(allowedEnvValues, ", ")))
			}
		}

		isAllowed := slices.Contains(allowedKeys, key)

		if !isAllowed {
			panic(fmt.Sprintf("[ENV] La clé '%s' n'est pas autorisée. Clés autorisées: %s",
				key, strings.Join(allowedKeys, ", ")))
		}

		if err := os.Setenv(key, value); err != nil {
			panic("[ENV] Impossible de définir la variable d'environnement " + key + ": " + err.Error())
		}

		if _, exists := foundKeys[key]; exists {
			foundKeys[key] = true
		}
	}

	if err := scanner.Err(); err != nil {
		panic("[ENV] Impossible de lire le fichier .env: " + err.Error())
	}

	var missingKeys []string
	for key, found := range foundKeys {
		if !found {
			missingKeys = append(missingKeys, key)
		}
	}

	if len(missingKeys) > 0 {
		panic(fmt.Sprintf("[ENV] Variables d'environnement obligatoires manquantes: %s",
			strings.Join(missingKeys, ", ")))
	}
}
