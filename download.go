package main

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/carlmjohnson/requests"
)

type Job struct {
	ano  int
	url  string
	file string
	dest string
}

// runDownloads baixa os CSVs anuais compactados do banco de preços em saúde
// e descompacta cada um no diretório de dados brutos.
func runDownloads(cfg *Config) {
	var jobs []Job

	for _, ano := range cfg.TargetYears {
		url := fmt.Sprintf("https://s3.sa-east-1.amazonaws.com/ckan.saude.gov.br/BPS/csv/%d.csv.zip", ano)
		output := fmt.Sprintf("%d.csv.zip", ano)

		jobs = append(jobs, Job{
			ano:  ano,
			url:  url,
			file: output,
			dest: cfg.RawDataDir,
		})
	}

	const maxWorkers = 4
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	for _, job := range jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := downloadFile(job.url, job.file)
			if err != nil {
				fmt.Println("Erro download:", err)
				if err := os.Remove(job.file); err != nil {
					fmt.Printf("Erro ao excluir o arquivo %s: %v\n", job.file, err)
				} else {
					fmt.Printf("Arquivo %s excluído com sucesso.\n", job.file)
				}
				return
			}

			err = unzip(job.file, job.dest)
			if err != nil {
				fmt.Println("Erro unzip:", err)
				return
			}
			fmt.Printf("Arquivo %s descompactado em: %s\n", job.file, job.dest)

			if err := os.Remove(job.file); err != nil {
				fmt.Printf("Erro ao excluir o arquivo %s: %v\n", job.file, err)
			} else {
				fmt.Printf("Arquivo %s excluído com sucesso.\n", job.file)
			}
		}(job)
	}

	wg.Wait()
	fmt.Println("Todos os downloads concluídos.")
}

func downloadFile(url, file string) error {
	return requests.
		URL(url).
		ToFile(file).
		Fetch(context.Background())
}

func unzip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}

	for _, f := range r.File {
		path := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(path, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("caminho inválido no zip: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(path, f.Mode()); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		out.Close()
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
