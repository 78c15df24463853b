package metadata

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
)

const definitionAddress string = "https://api.nuget.org/v3/index.json"
const nugetName string = "microsoft.windows.sdk.win32metadata"

// DownloadWinMd fetches the newest stable Win32 metadata package from NuGet
// and extracts its .winmd file to metadataFileName.
func DownloadWinMd(metadataFileName string) error {
	baseAddress, err := getBaseAddress(definitionAddress)
	if err != nil {
		return err
	}

	versionsResponse, err := queryGet(fmt.Sprintf("%s%s/index.json", baseAddress, nugetName))
	if err != nil {
		return err
	}
	versions, err := parse[map[string][]string](versionsResponse)
	if err != nil {
		return fmt.Errorf("parsing package versions: %w", err)
	}
	latest, err := latestStable(versions["versions"])
	if err != nil {
		return err
	}

	log.Infof("downloading %s %s", nugetName, latest)
	nugetBytes, err := queryGet(fmt.Sprintf("%s%s/%s/%s.%s.nupkg", baseAddress, nugetName, latest, nugetName, latest))
	if err != nil {
		return err
	}
	return extractWinMd(nugetBytes, metadataFileName)
}

// latestStable picks the highest version without a prerelease suffix.
func latestStable(versionStrings []string) (string, error) {
	orderedVersions := make([]*version.Version, 0, len(versionStrings))
	for _, versionString := range versionStrings {
		v, err := version.NewVersion(versionString)
		if err != nil {
			return "", fmt.Errorf("error parsing version %s: %w", versionString, err)
		}
		if v.Prerelease() == "" {
			orderedVersions = append(orderedVersions, v)
		}
	}
	if len(orderedVersions) == 0 {
		return "", fmt.Errorf("no stable version of %s was published", nugetName)
	}

	sort.Sort(version.Collection(orderedVersions))
	return orderedVersions[len(orderedVersions)-1].Original(), nil
}

func extractWinMd(nugetBytes []byte, metadataFileName string) error {
	bytesReader := bytes.NewReader(nugetBytes)
	nuget, err := zip.NewReader(bytesReader, int64(bytesReader.Len()))
	if err != nil {
		return fmt.Errorf("opening package: %w", err)
	}
	for _, file := range nuget.File {
		if filepath.Ext(file.Name) != ".winmd" {
			continue
		}
		reader, err := file.Open()
		if err != nil {
			return err
		}
		defer reader.Close()
		metadataBytes, err := io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("extracting %s: %w", file.Name, err)
		}
		return os.WriteFile(metadataFileName, metadataBytes, 0644)
	}
	return fmt.Errorf("package %s contains no .winmd file", nugetName)
}

func getBaseAddress(indexAddress string) (string, error) {
	response, err := queryGet(indexAddress)
	if err != nil {
		return "", err
	}
	index, err := parse[nugetIndex](response)
	if err != nil {
		return "", fmt.Errorf("parsing service index: %w", err)
	}

	for _, resource := range index.Resources {
		if strings.Contains(resource.Type, "PackageBaseAddress") {
			return resource.Id, nil
		}
	}
	return "", fmt.Errorf("service index %s has no package base address", indexAddress)
}

func parse[T interface{}](source []byte) (T, error) {
	var parsedBody T
	err := json.Unmarshal(source, &parsedBody)
	return parsedBody, err
}

func queryGet(url string) ([]byte, error) {
	response, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, response.Status)
	}
	return io.ReadAll(response.Body)
}

type nugetIndex struct {
	Resources []nugetResource `json:"resources"`
}

type nugetResource struct {
	Id   string `json:"@id"`
	Type string `json:"@type"`
}
