// Package fast_todo_service é um serviço de tarefas (todos) multi-tenant sobre
// DynamoDB e S3, executável como servidor HTTP ou como AWS Lambda atrás do
// API Gateway.
//
// Visão Geral:
// Cada usuário autenticado (claim "sub" do JWT) enxerga apenas os próprios
// itens. A posse é garantida pela chave composta userId + todoId e por
// escritas condicionais, de modo que um item de outro usuário é
// indistinguível de um item inexistente.
//
// Sub-Pacotes Principais:
//
// 1. envloader:
//   - Carregamento de configurações via tags "env", "envDefault" e "envRequired".
//
// 2. dyndb:
//   - Store[T] genérico sobre DynamoDB (CRUD, Query paginada, escritas condicionais).
//
// 3. pkg/service:
//   - Regras de negócio: validação, timestamps, ids, cache de listagem e métricas.
//
// 4. pkg/transport:
//   - Rotas REST (gorilla/mux), adaptador Lambda e listener SQS de rotação de chave.
//
// 5. pkg/auth, pkg/secrets, pkg/config:
//   - Verificação de JWT HS256, segredos via SSM/Secrets Manager e configuração
//     em camadas (defaults, YAML, ambiente).
//
// Exemplo de Início Rápido:
//
//	export TODOS_TABLE=todos ATTACHMENT_S3_BUCKET=todo-attachments
//	export AUTH_JWT_SECRET=dev-secret IS_OFFLINE=true
//	go run ./cmd/server
//
//	curl -H "Authorization: Bearer $TOKEN" \
//	     -d '{"name":"Buy milk","dueDate":"2026-01-01"}' localhost:8080/todos
package fast_todo_service
